package practice

import (
	"context"

	"github.com/isdmx/gradebox/grading"
	"github.com/isdmx/gradebox/judge"
)

// Repository persists session snapshots. Implementations never hand out or
// keep references to caller-owned values. UpdateQuestion and
// RecordSubmission must be atomic with respect to each other.
type Repository interface {
	SaveSession(ctx context.Context, session *PracticeSession) error
	GetSession(ctx context.Context, sessionID string) (*PracticeSession, error)
	// UpdateQuestion applies update to a copy of the question and stores it
	// only if update returns nil.
	UpdateQuestion(ctx context.Context, sessionID, questionID string, update func(*Question) error) error
	RecordSubmission(ctx context.Context, sessionID, questionID string, record SubmissionRecord) error
}

// HintContext is what the evaluator sees when asked for a hint
type HintContext struct {
	QuestionID     string   `json:"questionId"`
	Stem           string   `json:"stem"`
	Language       string   `json:"language"`
	HintNumber     int      `json:"hintNumber"`
	PreviousHints  []string `json:"previousHints,omitempty"`
	LastSubmission string   `json:"lastSubmission,omitempty"`
}

// GeneratedHint is the evaluator's answer to a hint request
type GeneratedHint struct {
	ID        string `json:"id"`
	Hint      string `json:"hint"`
	Reasoning string `json:"reasoning"`
}

// QuestionView is the part of a question shown to the evaluator
type QuestionView struct {
	ID       string `json:"id"`
	Stem     string `json:"stem"`
	Language string `json:"language"`
}

// Evaluator generates hints and judges solutions that have no test suite
type Evaluator interface {
	GenerateHint(ctx context.Context, hc HintContext) (GeneratedHint, error)
	EvaluateSolution(ctx context.Context, code string, question QuestionView) (Evaluation, error)
}

// Grader grades code against a test suite
type Grader interface {
	Grade(ctx context.Context, code, language string, tests []judge.TestCase) ([]grading.Verdict, error)
}

// Runner executes one ad hoc program
type Runner interface {
	ExecuteSingle(ctx context.Context, sub judge.Submission) (judge.JudgeResult, error)
}
