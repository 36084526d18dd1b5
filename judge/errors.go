package judge

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLanguage is fatal and never retried
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrTransport wraps network failures and unexpected judge responses
	ErrTransport = errors.New("judge transport error")
	// ErrSubmissionTimeout means the poll ceiling was exhausted
	ErrSubmissionTimeout = errors.New("submission timed out")
	// ErrBatchRejected means the batch endpoint refused the request; callers
	// fall back to sequential execution
	ErrBatchRejected = errors.New("batch submission rejected")
	// ErrGaveUp is returned by the Retrier once attempts are exhausted
	ErrGaveUp = errors.New("gave up after retries")
)

// HTTPError is a non-2xx answer from the judge
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("judge responded %d: %s", e.StatusCode, e.Body)
}

// clientSide reports whether the judge refused the request itself, in
// which case repeating it cannot help.
func (e *HTTPError) clientSide() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 429
}
