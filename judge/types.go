package judge

// TestCase is one input/expected pair attached to a question.
// ExpectedOutput may be a string or any JSON-compatible value; nil means
// no expectation.
type TestCase struct {
	Input          string `json:"input" yaml:"input"`
	ExpectedOutput any    `json:"expectedOutput" yaml:"expected"`
	Hidden         bool   `json:"hidden,omitempty" yaml:"hidden"`
}

// Clone returns a copy of the test case whose expected value shares no
// slices or maps with tc.
func (tc TestCase) Clone() TestCase {
	out := tc
	out.ExpectedOutput = cloneValue(tc.ExpectedOutput)
	return out
}

// CloneTests copies a test list with Clone
func CloneTests(tests []TestCase) []TestCase {
	if tests == nil {
		return nil
	}
	out := make([]TestCase, len(tests))
	for i, tc := range tests {
		out[i] = tc.Clone()
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Submission is a single grading request; it is never persisted as-is.
type Submission struct {
	SourceCode     string
	Language       string
	Stdin          string
	ExpectedOutput any
}

// JudgeResult is the normalized outcome of one remote job. Passed is
// derived from the status and the expected output, never supplied.
type JudgeResult struct {
	StatusID      int     `json:"statusId"`
	StatusText    string  `json:"statusText"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	CompileOutput string  `json:"compileOutput"`
	Message       string  `json:"message,omitempty"`
	Time          float64 `json:"time"`
	Memory        int     `json:"memory"`
	Passed        bool    `json:"passed"`
}

// Outcome is the per-test slot of a batch. Exactly one of Result or Err
// is meaningful.
type Outcome struct {
	Result JudgeResult
	Err    error
}

// RemoteLanguage is an entry of the judge's GET /languages listing
type RemoteLanguage struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
