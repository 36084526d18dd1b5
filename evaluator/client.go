// Package evaluator asks an OpenAI-compatible chat completions endpoint
// for hints and for verdicts on questions that have no test suite.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/config"
	"github.com/isdmx/gradebox/practice"
)

// ErrEvaluatorDisabled is returned by every call when the evaluator is off
var ErrEvaluatorDisabled = fmt.Errorf("evaluator disabled: %w", practice.ErrEvaluatorUnavailable)

const hintPrompt = `You are a patient programming tutor. Give the learner one hint for the
question below without revealing the full solution. Each hint should go a
little further than the previous ones.
Reply with a single JSON object and no Markdown:
{"hint": "<the hint>", "reasoning": "<why this hint helps now>"}`

const evaluatePrompt = `You are a strict programming reviewer. Decide whether the learner's code
solves the question, and whether it looks machine generated.
Reply with a single JSON object and no Markdown:
{"correct": true|false, "aiSuspected": true|false, "feedback": "<short feedback>", "diagnostics": ["<issue>", ...]}`

// Config holds configuration for the evaluator client
type Config struct {
	Enabled     bool
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client is an AI evaluator backed by chat completions
type Client struct {
	logger     *zap.Logger
	config     *Config
	httpClient *http.Client
	newID      func() string
}

// ClientOption defines a functional option for Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Client
func NewClient(logger *zap.Logger, cfg *Config, opts ...ClientOption) *Client {
	c := &Client{
		logger:     logger,
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		newID:      uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig creates a Client from the evaluator configuration section
func NewClientFromConfig(logger *zap.Logger, cfg *config.Config) *Client {
	return NewClient(logger.Named("evaluator"), &Config{
		Enabled:     cfg.Evaluator.Enabled,
		BaseURL:     cfg.Evaluator.BaseURL,
		APIKey:      cfg.Evaluator.APIKey,
		Model:       cfg.Evaluator.Model,
		Temperature: cfg.Evaluator.Temperature,
		Timeout:     time.Duration(cfg.Evaluator.TimeoutSec) * time.Second,
	})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateHint asks the model for the next hint
func (c *Client) GenerateHint(ctx context.Context, hc practice.HintContext) (practice.GeneratedHint, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\nHint number: %d\n\nQuestion:\n%s\n", hc.Language, hc.HintNumber, hc.Stem)
	for i, prev := range hc.PreviousHints {
		fmt.Fprintf(&b, "\nPrevious hint %d: %s", i+1, prev)
	}
	if hc.LastSubmission != "" {
		fmt.Fprintf(&b, "\n\nLearner's latest attempt:\n%s\n", hc.LastSubmission)
	}

	var reply struct {
		Hint      string `json:"hint"`
		Reasoning string `json:"reasoning"`
	}
	if err := c.complete(ctx, hintPrompt, b.String(), &reply); err != nil {
		return practice.GeneratedHint{}, err
	}
	if strings.TrimSpace(reply.Hint) == "" {
		return practice.GeneratedHint{}, errors.New("model returned an empty hint")
	}

	c.logger.Debug("hint generated", zap.String("question_id", hc.QuestionID), zap.Int("hint_number", hc.HintNumber))
	return practice.GeneratedHint{ID: c.newID(), Hint: reply.Hint, Reasoning: reply.Reasoning}, nil
}

// EvaluateSolution asks the model to judge code against a question. The
// model's flags are returned unchanged.
func (c *Client) EvaluateSolution(ctx context.Context, code string, q practice.QuestionView) (practice.Evaluation, error) {
	user := fmt.Sprintf("Language: %s\n\nQuestion:\n%s\n\nLearner's code:\n%s\n", q.Language, q.Stem, code)

	var reply struct {
		Correct     bool     `json:"correct"`
		AISuspected bool     `json:"aiSuspected"`
		Feedback    string   `json:"feedback"`
		Diagnostics []string `json:"diagnostics"`
	}
	if err := c.complete(ctx, evaluatePrompt, user, &reply); err != nil {
		return practice.Evaluation{}, err
	}

	c.logger.Debug("solution evaluated",
		zap.String("question_id", q.ID),
		zap.Bool("correct", reply.Correct),
		zap.Bool("ai_suspected", reply.AISuspected))

	return practice.Evaluation{
		Correct:     reply.Correct,
		AISuspected: reply.AISuspected,
		Feedback:    reply.Feedback,
		Diagnostics: reply.Diagnostics,
		Source:      practice.SourceAI,
	}, nil
}

// complete sends one system+user exchange and decodes the JSON reply into out
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	if !c.config.Enabled {
		return ErrEvaluatorDisabled
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.config.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("evaluator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("evaluator API error: %s - %s", resp.Status, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return fmt.Errorf("failed to decode evaluator response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return errors.New("empty response from evaluator")
	}

	content := stripFences(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		c.logger.Warn("unparseable evaluator reply", zap.String("content", content), zap.Error(err))
		return fmt.Errorf("parse error: %w", err)
	}
	return nil
}

// stripFences removes a surrounding Markdown code fence
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
