package practice

import (
	"time"

	"github.com/isdmx/gradebox/grading"
	"github.com/isdmx/gradebox/judge"
)

// Evaluation sources
const (
	SourceTests = "tests"
	SourceAI    = "ai"
)

// Hint is one hint handed to the learner
type Hint struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Reasoning string    `json:"reasoning,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Evaluation is the outcome of a submission, either from the test suite
// or from the AI evaluator. The evaluator's flags are stored as received.
type Evaluation struct {
	Correct     bool              `json:"correct"`
	AISuspected bool              `json:"aiSuspected"`
	Feedback    string            `json:"feedback,omitempty"`
	Diagnostics []string          `json:"diagnostics,omitempty"`
	Verdicts    []grading.Verdict `json:"verdicts,omitempty"`
	Source      string            `json:"source"`
}

// SubmissionRecord is an entry in a question's submission history. It is
// never modified once appended.
type SubmissionRecord struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	Language   string     `json:"language"`
	Timestamp  time.Time  `json:"timestamp"`
	Evaluation Evaluation `json:"evaluation"`
}

// Question is a single practice question and the learner's progress on it
type Question struct {
	ID          string             `json:"id"`
	Stem        string             `json:"stem"`
	Language    string             `json:"language"`
	Hints       []Hint             `json:"hints"`
	HintsUsed   int                `json:"hintsUsed"`
	Tests       []judge.TestCase   `json:"tests"`
	Submissions []SubmissionRecord `json:"submissions"`
}

// PracticeSession is a learner's set of questions for one course
type PracticeSession struct {
	ID        string     `json:"id"`
	LearnerID string     `json:"learnerId"`
	CourseID  string     `json:"courseId"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// QuestionSpec describes a question when a session is created
type QuestionSpec struct {
	Stem     string           `json:"stem" yaml:"stem"`
	Language string           `json:"language" yaml:"language"`
	Tests    []judge.TestCase `json:"tests" yaml:"tests"`
}

// HintResponse is returned by RequestHint
type HintResponse struct {
	Hint           Hint `json:"hint"`
	HintsUsed      int  `json:"hintsUsed"`
	RemainingHints int  `json:"remainingHints"`
}

// Question returns a pointer into s.Questions for the given id
func (s *PracticeSession) Question(id string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the session
func (s *PracticeSession) Clone() *PracticeSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Questions = make([]Question, len(s.Questions))
	for i := range s.Questions {
		out.Questions[i] = s.Questions[i].Clone()
	}
	return &out
}

// Clone returns a deep copy of the question, including structured
// expected values.
func (q Question) Clone() Question {
	out := q
	out.Hints = append([]Hint(nil), q.Hints...)
	out.Tests = judge.CloneTests(q.Tests)
	out.Submissions = make([]SubmissionRecord, len(q.Submissions))
	for i, rec := range q.Submissions {
		out.Submissions[i] = rec.Clone()
	}
	return out
}

// Clone returns a deep copy of the record
func (r SubmissionRecord) Clone() SubmissionRecord {
	out := r
	out.Evaluation = r.Evaluation.Clone()
	return out
}

// Clone returns a deep copy of the evaluation
func (e Evaluation) Clone() Evaluation {
	out := e
	out.Diagnostics = append([]string(nil), e.Diagnostics...)
	out.Verdicts = append([]grading.Verdict(nil), e.Verdicts...)
	return out
}
