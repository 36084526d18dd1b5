// Package judge talks to a remote sandboxed execution service: it submits
// code, polls job tokens to completion and normalizes the judge's status
// codes into stable results.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/harness"
)

const maxErrorBody = 2048

// Config holds configuration for the judge client
type Config struct {
	BaseURL          string
	APIKey           string
	RequestTimeout   time.Duration
	PollInterval     time.Duration
	MaxPollAttempts  int
	SubmitAttempts   int
	CPUTimeLimitSec  float64
	WallTimeLimitSec float64
	MemoryLimitKB    int
	ParallelPolling  bool
	MaxParallelPolls int
}

// Client is a judge client. A Client owns its health flag; it is safe for
// concurrent use.
type Client struct {
	logger     *zap.Logger
	config     *Config
	httpClient *http.Client
	retrier    *Retrier
	healthy    atomic.Bool
}

// ClientOption defines a functional option for Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for every request
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetrier sets the retry runner used for submissions
func WithRetrier(retrier *Retrier) ClientOption {
	return func(c *Client) {
		c.retrier = retrier
	}
}

// NewClient creates a new Client with default implementations and optional overrides
func NewClient(logger *zap.Logger, config *Config, opts ...ClientOption) *Client {
	client := &Client{
		logger:     logger,
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		retrier:    NewRetrier(logger, config.SubmitAttempts, config.PollInterval),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Healthy returns the last known availability of the judge
func (c *Client) Healthy() bool {
	return c.healthy.Load()
}

// CheckAvailability probes the judge and records the result. Any failure
// counts as unavailable.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	var langs []RemoteLanguage
	if err := c.doJSON(ctx, http.MethodGet, "/languages", nil, &langs); err != nil {
		c.logger.Warn("judge unavailable", zap.Error(err))
		c.healthy.Store(false)
		return false
	}
	c.healthy.Store(true)
	return true
}

// Languages returns the runtimes the judge advertises
func (c *Client) Languages(ctx context.Context) ([]RemoteLanguage, error) {
	var langs []RemoteLanguage
	if err := c.doJSON(ctx, http.MethodGet, "/languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// submissionRequest is the judge's submission payload
type submissionRequest struct {
	SourceCode     string  `json:"source_code"`
	LanguageID     int     `json:"language_id"`
	Stdin          string  `json:"stdin,omitempty"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
	CPUTimeLimit   float64 `json:"cpu_time_limit"`
	WallTimeLimit  float64 `json:"wall_time_limit"`
	MemoryLimit    int     `json:"memory_limit"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type batchRequest struct {
	Submissions []submissionRequest `json:"submissions"`
}

func (c *Client) buildRequest(code string, languageID int, stdin string, expected any) submissionRequest {
	req := submissionRequest{
		SourceCode:    code,
		LanguageID:    languageID,
		Stdin:         stdin,
		CPUTimeLimit:  c.config.CPUTimeLimitSec,
		WallTimeLimit: c.config.WallTimeLimitSec,
		MemoryLimit:   c.config.MemoryLimitKB,
	}
	if expected != nil {
		out := strings.TrimSpace(harness.CanonicalValue(expected))
		req.ExpectedOutput = &out
	}
	return req
}

// ExecuteSingle submits one job and polls it to a terminal status
func (c *Client) ExecuteSingle(ctx context.Context, sub Submission) (JudgeResult, error) {
	languageID, err := ResolveLanguageID(sub.Language)
	if err != nil {
		return JudgeResult{}, err
	}

	token, err := c.submit(ctx, c.buildRequest(sub.SourceCode, languageID, sub.Stdin, sub.ExpectedOutput))
	if err != nil {
		return JudgeResult{}, err
	}

	return c.poll(ctx, token, sub.ExpectedOutput)
}

// submit posts one submission, retrying transport failures
func (c *Client) submit(ctx context.Context, req submissionRequest) (string, error) {
	var token string
	err := c.retrier.Do(ctx, "submit", func(ctx context.Context) error {
		var resp tokenResponse
		if err := c.doJSON(ctx, http.MethodPost, "/submissions?base64_encoded=false&wait=false", req, &resp); err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.clientSide() {
				return Permanent(err)
			}
			return err
		}
		if resp.Token == "" {
			return fmt.Errorf("%w: judge returned no token", ErrTransport)
		}
		token = resp.Token
		return nil
	})
	if err != nil {
		c.healthy.Store(false)
		return "", fmt.Errorf("submitting to judge: %w", err)
	}
	c.healthy.Store(true)
	return token, nil
}

// poll fetches a token until it reaches a terminal status or the attempt
// ceiling is hit. Transport failures count as attempts and are retried.
func (c *Client) poll(ctx context.Context, token string, expected any) (JudgeResult, error) {
	path := "/submissions/" + url.PathEscape(token) + "?base64_encoded=false"

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxPollAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.config.PollInterval); err != nil {
				return JudgeResult{}, fmt.Errorf("polling %s abandoned: %w", token, err)
			}
		}

		var resp submissionResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			if ctx.Err() != nil {
				return JudgeResult{}, fmt.Errorf("polling %s abandoned: %w", token, ctx.Err())
			}
			lastErr = err
			c.logger.Warn("poll attempt failed",
				zap.String("token", token),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		if !IsTerminal(resp.Status.ID) {
			c.logger.Debug("job not finished",
				zap.String("token", token),
				zap.Int("attempt", attempt),
				zap.String("status", StatusText(resp.Status.ID)))
			continue
		}

		return normalize(resp, expected), nil
	}

	if lastErr != nil {
		return JudgeResult{}, fmt.Errorf("%w: token %s after %d polls: %w", ErrSubmissionTimeout, token, c.config.MaxPollAttempts, lastErr)
	}
	return JudgeResult{}, fmt.Errorf("%w: token %s after %d polls", ErrSubmissionTimeout, token, c.config.MaxPollAttempts)
}

// ExecuteBatch submits every test case in one batched request and polls
// each returned token. A failure on one token only affects its own slot.
// ErrBatchRejected is returned when the judge refuses the batch.
func (c *Client) ExecuteBatch(ctx context.Context, code, language string, tests []TestCase) ([]Outcome, error) {
	languageID, err := ResolveLanguageID(language)
	if err != nil {
		return nil, err
	}
	if len(tests) == 0 {
		return []Outcome{}, nil
	}

	batch := batchRequest{Submissions: make([]submissionRequest, len(tests))}
	for i, tc := range tests {
		batch.Submissions[i] = c.buildRequest(code, languageID, tc.Input, tc.ExpectedOutput)
	}

	var tokens []tokenResponse
	err = c.retrier.Do(ctx, "submit_batch", func(ctx context.Context) error {
		tokens = nil
		if err := c.doJSON(ctx, http.MethodPost, "/submissions/batch?base64_encoded=false", batch, &tokens); err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.clientSide() {
				return Permanent(fmt.Errorf("%w: %w", ErrBatchRejected, err))
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrBatchRejected) {
			c.healthy.Store(false)
		}
		return nil, fmt.Errorf("submitting batch to judge: %w", err)
	}
	if len(tokens) != len(tests) {
		return nil, fmt.Errorf("%w: judge returned %d tokens for %d test cases", ErrBatchRejected, len(tokens), len(tests))
	}
	c.healthy.Store(true)

	outcomes := make([]Outcome, len(tests))
	pollOne := func(i int) {
		if tokens[i].Token == "" {
			outcomes[i] = Outcome{Err: fmt.Errorf("%w: no token for test case %d", ErrTransport, i)}
			return
		}
		res, err := c.poll(ctx, tokens[i].Token, tests[i].ExpectedOutput)
		outcomes[i] = Outcome{Result: res, Err: err}
	}

	if c.config.ParallelPolling && c.config.MaxParallelPolls > 1 {
		p := pool.New().WithMaxGoroutines(c.config.MaxParallelPolls)
		for i := range tests {
			p.Go(func() { pollOne(i) })
		}
		p.Wait()
	} else {
		for i := range tests {
			pollOne(i)
		}
	}

	return outcomes, nil
}

// ExecuteSequential runs an independent submit and poll cycle per test case.
// It has the same contract as ExecuteBatch and is used when batching is
// unavailable.
func (c *Client) ExecuteSequential(ctx context.Context, code, language string, tests []TestCase) ([]Outcome, error) {
	if _, err := ResolveLanguageID(language); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(tests))
	for i, tc := range tests {
		res, err := c.ExecuteSingle(ctx, Submission{
			SourceCode:     code,
			Language:       language,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
		outcomes[i] = Outcome{Result: res, Err: err}
	}
	return outcomes, nil
}

// doJSON sends a JSON request and decodes a JSON response into out.
// Transport failures wrap ErrTransport; non-2xx answers are *HTTPError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIKey != "" {
		req.Header.Set("X-Auth-Token", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s %s: %w", ErrTransport, method, path, err)
	}
	return nil
}
