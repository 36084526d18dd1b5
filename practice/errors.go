package practice

import (
	"errors"

	"github.com/isdmx/gradebox/grading"
)

var (
	// ErrSessionNotFound is returned for an unknown session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrQuestionNotFound is returned for a question id not in the session
	ErrQuestionNotFound = errors.New("question not found")
	// ErrHintLimitReached means the question's hint budget is spent
	ErrHintLimitReached = errors.New("no hints remaining")
	// ErrEvaluatorUnavailable means no AI evaluator is configured
	ErrEvaluatorUnavailable = errors.New("evaluator unavailable")
)

// ValidationError reports a malformed request. It shares its type with the
// grading engine so callers match one type for both.
type ValidationError = grading.ValidationError
