// Package grading turns judge results into index-aligned verdicts.
//
// The engine first tries to harness the submission so one remote run
// covers every test case. When no harness applies, each test case is fed
// to the program on stdin through the judge's batch endpoint, falling back
// to one submission per test when batching is refused.
package grading

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/isdmx/gradebox/harness"
	"github.com/isdmx/gradebox/judge"
)

// Verdict statuses produced by the engine itself rather than the judge
const (
	StatusError        = "Error"
	StatusRuntimeError = "Runtime Error"
	StatusNoOutput     = "No Output"
)

// Runner is the part of the judge client the engine needs
type Runner interface {
	ExecuteSingle(ctx context.Context, sub judge.Submission) (judge.JudgeResult, error)
	ExecuteBatch(ctx context.Context, code, language string, tests []judge.TestCase) ([]judge.Outcome, error)
	ExecuteSequential(ctx context.Context, code, language string, tests []judge.TestCase) ([]judge.Outcome, error)
}

// Verdict is the graded outcome of one test case. Hidden test cases
// report empty Input and Expected.
type Verdict struct {
	Index         int     `json:"index"`
	Input         string  `json:"input"`
	Expected      string  `json:"expected"`
	ActualOutput  string  `json:"actualOutput"`
	Passed        bool    `json:"passed"`
	Status        string  `json:"status"`
	Error         bool    `json:"error"`
	Time          float64 `json:"time"`
	Stderr        string  `json:"stderr,omitempty"`
	CompileOutput string  `json:"compileOutput,omitempty"`
}

// Engine grades submissions against test cases
type Engine struct {
	logger       *zap.Logger
	runner       Runner
	batchEnabled bool
	harnessed    bool
}

// EngineOption defines a functional option for Engine
type EngineOption func(*Engine)

// WithBatch enables or disables the batch endpoint on the stdin path
func WithBatch(enabled bool) EngineOption {
	return func(e *Engine) {
		e.batchEnabled = enabled
	}
}

// WithHarness enables or disables harness generation
func WithHarness(enabled bool) EngineOption {
	return func(e *Engine) {
		e.harnessed = enabled
	}
}

// NewEngine creates a new Engine
func NewEngine(logger *zap.Logger, runner Runner, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:       logger,
		runner:       runner,
		batchEnabled: true,
		harnessed:    true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Grade runs code against tests. The returned slice always has one
// verdict per test, in test order. Only a *ValidationError is returned
// as an error; judge failures become error verdicts.
func (e *Engine) Grade(ctx context.Context, code, language string, tests []judge.TestCase) ([]Verdict, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if len(tests) == 0 {
		return nil, &ValidationError{Field: "tests", Reason: "at least one test case is required"}
	}
	if _, err := judge.ResolveLanguageID(language); err != nil {
		return nil, &ValidationError{Field: "language", Reason: "not supported by the judge", Err: err}
	}

	if e.harnessed {
		inputs := make([]string, len(tests))
		for i, tc := range tests {
			inputs[i] = tc.Input
		}
		gen := harness.Generate(code, harness.ParseLanguage(language), inputs)
		if gen.Wrapped {
			e.logger.Info("grading harnessed submission",
				zap.String("language", language),
				zap.String("entry_point", gen.EntryPoint.Name),
				zap.Int("tests", len(tests)))
			return e.gradeHarnessed(ctx, gen.Source, language, tests), nil
		}
		e.logger.Debug("harness not applied", zap.String("language", language), zap.String("reason", gen.Warning))
	}

	e.logger.Info("grading stdin submission", zap.String("language", language), zap.Int("tests", len(tests)))
	return e.gradeStdin(ctx, code, language, tests), nil
}

// gradeHarnessed runs the wrapped program once and matches the i-th
// tagged line against the i-th test.
func (e *Engine) gradeHarnessed(ctx context.Context, source, language string, tests []judge.TestCase) []Verdict {
	res, err := e.runner.ExecuteSingle(ctx, judge.Submission{SourceCode: source, Language: language})
	if err != nil {
		e.logger.Warn("harnessed run failed", zap.Error(err))
		verdicts := make([]Verdict, len(tests))
		for i, tc := range tests {
			verdicts[i] = errorVerdict(i, tc, err)
		}
		return verdicts
	}

	lines := harness.ParseResults(res.Stdout)
	verdicts := make([]Verdict, len(tests))
	for i, tc := range tests {
		v := baseVerdict(i, tc)
		v.Time = res.Time
		v.Stderr = res.Stderr
		v.CompileOutput = res.CompileOutput

		switch {
		case i >= len(lines):
			v.Status = res.StatusText
			if res.StatusID == judge.StatusAccepted {
				v.Status = StatusNoOutput
			}
		case lines[i].Failed:
			v.ActualOutput = lines[i].Value
			v.Status = StatusRuntimeError
		default:
			v.ActualOutput = lines[i].Value
			matched := Matches(lines[i].Value, tc.ExpectedOutput)
			v.Passed = res.StatusID == judge.StatusAccepted && matched
			switch {
			case res.StatusID != judge.StatusAccepted:
				v.Status = res.StatusText
			case matched:
				v.Status = judge.StatusText(judge.StatusAccepted)
			default:
				v.Status = judge.StatusText(judge.StatusWrongAnswer)
			}
		}
		verdicts[i] = v
	}
	return verdicts
}

// gradeStdin feeds each test's input on stdin
func (e *Engine) gradeStdin(ctx context.Context, code, language string, tests []judge.TestCase) []Verdict {
	var (
		outcomes []judge.Outcome
		err      error
	)
	if e.batchEnabled {
		outcomes, err = e.runner.ExecuteBatch(ctx, code, language, tests)
		if errors.Is(err, judge.ErrBatchRejected) {
			e.logger.Warn("batch rejected, falling back to sequential execution", zap.Error(err))
			outcomes, err = e.runner.ExecuteSequential(ctx, code, language, tests)
		}
	} else {
		outcomes, err = e.runner.ExecuteSequential(ctx, code, language, tests)
	}

	verdicts := make([]Verdict, len(tests))
	for i, tc := range tests {
		switch {
		case err != nil:
			verdicts[i] = errorVerdict(i, tc, err)
		case i >= len(outcomes):
			verdicts[i] = errorVerdict(i, tc, errors.New("judge returned no result for this test case"))
		case outcomes[i].Err != nil:
			verdicts[i] = errorVerdict(i, tc, outcomes[i].Err)
		default:
			verdicts[i] = resultVerdict(i, tc, outcomes[i].Result)
		}
	}
	if err != nil {
		e.logger.Warn("stdin run failed", zap.Error(err))
	}
	return verdicts
}

func baseVerdict(i int, tc judge.TestCase) Verdict {
	v := Verdict{Index: i}
	if !tc.Hidden {
		v.Input = tc.Input
		v.Expected = harness.CanonicalValue(tc.ExpectedOutput)
	}
	return v
}

func errorVerdict(i int, tc judge.TestCase, err error) Verdict {
	v := baseVerdict(i, tc)
	v.Status = StatusError
	v.Error = true
	v.ActualOutput = err.Error()
	return v
}

func resultVerdict(i int, tc judge.TestCase, res judge.JudgeResult) Verdict {
	v := baseVerdict(i, tc)
	v.ActualOutput = strings.TrimSpace(res.Stdout)
	v.Passed = res.Passed
	v.Status = res.StatusText
	v.Time = res.Time
	v.Stderr = res.Stderr
	v.CompileOutput = res.CompileOutput
	return v
}
