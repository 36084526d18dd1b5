// Package practice owns practice sessions: the per-question hint budget,
// submission history and ad hoc runs.
//
// Every mutation of a question happens under a per-question lock held by
// the Service and goes through the Repository's atomic update methods, so
// concurrent hint requests never overspend the budget and concurrent
// submissions are never lost.
package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/grading"
	"github.com/isdmx/gradebox/judge"
)

// DefaultMaxHints is the hint budget per question
const DefaultMaxHints = 3

// Service implements the practice session operations
type Service struct {
	logger    *zap.Logger
	repo      Repository
	grader    Grader
	runner    Runner
	evaluator Evaluator
	maxHints  int
	now       func() time.Time
	newID     func() string
	locks     *questionLocks
}

// ServiceOption defines a functional option for Service
type ServiceOption func(*Service)

// WithMaxHints sets the hint budget per question
func WithMaxHints(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxHints = n
		}
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator sets the id source for sessions, questions, hints and submissions
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a new Service. evaluator may be nil, in which case
// hints and test-less questions fail with ErrEvaluatorUnavailable.
func NewService(logger *zap.Logger, repo Repository, grader Grader, runner Runner, evaluator Evaluator, opts ...ServiceOption) *Service {
	s := &Service{
		logger:    logger,
		repo:      repo,
		grader:    grader,
		runner:    runner,
		evaluator: evaluator,
		maxHints:  DefaultMaxHints,
		now:       time.Now,
		newID:     uuid.NewString,
		locks:     newQuestionLocks(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// MaxHints returns the hint budget per question
func (s *Service) MaxHints() int {
	return s.maxHints
}

// InitializeSession creates a session with one fresh question per spec
func (s *Service) InitializeSession(ctx context.Context, learnerID, courseID string, specs []QuestionSpec) (*PracticeSession, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, &ValidationError{Field: "learnerId", Reason: "must not be empty"}
	}
	if len(specs) == 0 {
		return nil, &ValidationError{Field: "questions", Reason: "at least one question is required"}
	}

	session := &PracticeSession{
		ID:        s.newID(),
		LearnerID: learnerID,
		CourseID:  courseID,
		Questions: make([]Question, len(specs)),
		CreatedAt: s.now().UTC(),
	}
	for i, spec := range specs {
		if strings.TrimSpace(spec.Stem) == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("questions[%d].stem", i), Reason: "must not be empty"}
		}
		if _, err := judge.ResolveLanguageID(spec.Language); err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("questions[%d].language", i), Reason: "not supported by the judge", Err: err}
		}
		session.Questions[i] = Question{
			ID:          s.newID(),
			Stem:        spec.Stem,
			Language:    spec.Language,
			Hints:       []Hint{},
			Tests:       judge.CloneTests(spec.Tests),
			Submissions: []SubmissionRecord{},
		}
	}

	if err := s.repo.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("session initialized",
		zap.String("session_id", session.ID),
		zap.String("learner_id", learnerID),
		zap.String("course_id", courseID),
		zap.Int("questions", len(specs)))

	return session.Clone(), nil
}

// GetSession returns a copy of the session
func (s *Service) GetSession(ctx context.Context, sessionID string) (*PracticeSession, error) {
	return s.repo.GetSession(ctx, sessionID)
}

// question loads a copy of one question
func (s *Service) question(ctx context.Context, sessionID, questionID string) (Question, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return Question{}, err
	}
	q, ok := session.Question(questionID)
	if !ok {
		return Question{}, fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
	}
	return *q, nil
}

// RequestHint asks the evaluator for the next hint and spends one unit of
// the question's budget. Once the budget is spent it returns
// ErrHintLimitReached and leaves the question unchanged.
func (s *Service) RequestHint(ctx context.Context, sessionID, questionID string) (HintResponse, error) {
	q, err := s.question(ctx, sessionID, questionID)
	if err != nil {
		return HintResponse{}, err
	}
	if q.HintsUsed >= s.maxHints {
		return HintResponse{}, ErrHintLimitReached
	}
	if s.evaluator == nil {
		return HintResponse{}, ErrEvaluatorUnavailable
	}

	hc := HintContext{
		QuestionID: q.ID,
		Stem:       q.Stem,
		Language:   q.Language,
		HintNumber: q.HintsUsed + 1,
	}
	for _, h := range q.Hints {
		hc.PreviousHints = append(hc.PreviousHints, h.Text)
	}
	if n := len(q.Submissions); n > 0 {
		hc.LastSubmission = q.Submissions[n-1].Code
	}

	// The evaluator can be slow; the budget is re-checked under the lock.
	generated, err := s.evaluator.GenerateHint(ctx, hc)
	if err != nil {
		return HintResponse{}, fmt.Errorf("failed to generate hint: %w", err)
	}

	hint := Hint{
		ID:        generated.ID,
		Text:      generated.Hint,
		Reasoning: generated.Reasoning,
		CreatedAt: s.now().UTC(),
	}
	if hint.ID == "" {
		hint.ID = s.newID()
	}

	var resp HintResponse
	unlock := s.locks.lock(sessionID, questionID)
	defer unlock()

	err = s.repo.UpdateQuestion(ctx, sessionID, questionID, func(q *Question) error {
		if q.HintsUsed >= s.maxHints {
			return ErrHintLimitReached
		}
		q.Hints = append(q.Hints, hint)
		q.HintsUsed++
		resp = HintResponse{Hint: hint, HintsUsed: q.HintsUsed, RemainingHints: s.maxHints - q.HintsUsed}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHintLimitReached) {
			return HintResponse{}, ErrHintLimitReached
		}
		return HintResponse{}, err
	}

	s.logger.Info("hint issued",
		zap.String("session_id", sessionID),
		zap.String("question_id", questionID),
		zap.Int("hints_used", resp.HintsUsed),
		zap.Int("remaining", resp.RemainingHints))

	return resp, nil
}

// SubmitSolution grades code and appends exactly one submission record.
// Questions with tests are graded by the test suite; the rest are judged
// by the evaluator, whose verdict is recorded as received.
func (s *Service) SubmitSolution(ctx context.Context, sessionID, questionID, code, language string) (Evaluation, error) {
	if strings.TrimSpace(code) == "" {
		return Evaluation{}, &ValidationError{Field: "code", Reason: "must not be empty"}
	}

	q, err := s.question(ctx, sessionID, questionID)
	if err != nil {
		return Evaluation{}, err
	}
	if language == "" {
		language = q.Language
	}

	var eval Evaluation
	if len(q.Tests) > 0 {
		verdicts, err := s.grader.Grade(ctx, code, language, q.Tests)
		if err != nil {
			return Evaluation{}, err
		}
		summary := grading.Summarize(verdicts)
		eval = Evaluation{
			Correct:  summary.AllPassed,
			Feedback: fmt.Sprintf("%d/%d tests passed", summary.Passed, summary.Total),
			Verdicts: verdicts,
			Source:   SourceTests,
		}
	} else {
		if s.evaluator == nil {
			return Evaluation{}, ErrEvaluatorUnavailable
		}
		eval, err = s.evaluator.EvaluateSolution(ctx, code, QuestionView{ID: q.ID, Stem: q.Stem, Language: language})
		if err != nil {
			return Evaluation{}, fmt.Errorf("failed to evaluate solution: %w", err)
		}
		eval.Source = SourceAI
	}

	record := SubmissionRecord{
		ID:         s.newID(),
		Code:       code,
		Language:   language,
		Timestamp:  s.now().UTC(),
		Evaluation: eval.Clone(),
	}

	unlock := s.locks.lock(sessionID, questionID)
	err = s.repo.RecordSubmission(ctx, sessionID, questionID, record)
	unlock()
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to record submission: %w", err)
	}

	s.logger.Info("submission recorded",
		zap.String("session_id", sessionID),
		zap.String("question_id", questionID),
		zap.String("source", eval.Source),
		zap.Bool("correct", eval.Correct),
		zap.Bool("ai_suspected", eval.AISuspected))

	return eval, nil
}

// RunCode executes code once with the given stdin. Nothing is recorded.
func (s *Service) RunCode(ctx context.Context, sessionID, questionID, code, language, stdin string) (judge.JudgeResult, error) {
	if strings.TrimSpace(code) == "" {
		return judge.JudgeResult{}, &ValidationError{Field: "code", Reason: "must not be empty"}
	}

	q, err := s.question(ctx, sessionID, questionID)
	if err != nil {
		return judge.JudgeResult{}, err
	}
	if language == "" {
		language = q.Language
	}

	s.logger.Debug("running code",
		zap.String("session_id", sessionID),
		zap.String("question_id", questionID),
		zap.String("language", language))

	return s.runner.ExecuteSingle(ctx, judge.Submission{SourceCode: code, Language: language, Stdin: stdin})
}

// questionLocks hands out one mutex per question. Entries are dropped once
// no goroutine holds or waits on them.
type questionLocks struct {
	mu   sync.Mutex
	held map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newQuestionLocks() *questionLocks {
	return &questionLocks{held: make(map[string]*lockEntry)}
}

func (l *questionLocks) lock(sessionID, questionID string) (unlock func()) {
	key := sessionID + "/" + questionID

	l.mu.Lock()
	e, ok := l.held[key]
	if !ok {
		e = &lockEntry{}
		l.held[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.held, key)
		}
		l.mu.Unlock()
	}
}
