package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLanguageID(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"python", 71},
		{"Python3", 71},
		{"javascript", 63},
		{" js ", 63},
		{"java", 62},
		{"cpp", 54},
		{"c++", 54},
		{"go", 60},
		{"ruby", 72},
		{"typescript", 74},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ResolveLanguageID(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	_, err := ResolveLanguageID("klingon")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestStatusHelpers(t *testing.T) {
	assert.False(t, IsTerminal(StatusInQueue))
	assert.False(t, IsTerminal(StatusProcessing))
	for id := StatusAccepted; id <= StatusExecFormatError; id++ {
		assert.True(t, IsTerminal(id), StatusText(id))
	}

	assert.True(t, IsRuntimeError(StatusRuntimeNZEC))
	assert.False(t, IsRuntimeError(StatusCompilationError))

	assert.Equal(t, "Time Limit Exceeded", StatusText(StatusTimeLimitExceeded))
	assert.Equal(t, "Unknown Status (42)", StatusText(42))
}

func TestOutputMatches(t *testing.T) {
	tests := []struct {
		name     string
		stdout   string
		expected any
		want     bool
	}{
		{"no expectation", "anything", nil, true},
		{"exact", "3", "3", true},
		{"trailing newline", "3\n", " 3 ", true},
		{"case sensitive", "Yes", "yes", false},
		{"number", "42\n", 42, true},
		{"list", "[1,2,3]\n", []any{1, 2, 3}, true},
		{"list with spaces is text", "[1, 2]", []any{1, 2}, false},
		{"wrong", "4", "3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputMatches(tt.stdout, tt.expected))
		})
	}
}

func TestNormalize(t *testing.T) {
	res := normalize(submissionResponse{
		Stdout: "3\n",
		Time:   "0.5",
		Memory: 900,
		Status: submissionStatus{ID: StatusAccepted},
	}, 3)
	assert.True(t, res.Passed)
	assert.InDelta(t, 0.5, res.Time, 1e-9)

	compileErr := normalize(submissionResponse{
		CompileOutput: "main.cpp:1: error",
		Status:        submissionStatus{ID: StatusCompilationError},
	}, nil)
	assert.False(t, compileErr.Passed)
	assert.Equal(t, "Compilation Error", compileErr.StatusText)
	assert.Equal(t, "main.cpp:1: error", compileErr.CompileOutput)
	assert.Zero(t, compileErr.Time)
}

func TestHTTPErrorClientSide(t *testing.T) {
	assert.True(t, (&HTTPError{StatusCode: 400}).clientSide())
	assert.True(t, (&HTTPError{StatusCode: 422}).clientSide())
	assert.False(t, (&HTTPError{StatusCode: 429}).clientSide())
	assert.False(t, (&HTTPError{StatusCode: 503}).clientSide())
}

func TestTestCaseClone(t *testing.T) {
	orig := TestCase{Input: "[1]", ExpectedOutput: map[string]any{"xs": []any{1.0, 2.0}}, Hidden: true}

	cp := orig.Clone()
	cp.ExpectedOutput.(map[string]any)["xs"].([]any)[0] = 7.0
	cp.ExpectedOutput.(map[string]any)["y"] = true

	assert.Equal(t, map[string]any{"xs": []any{1.0, 2.0}}, orig.ExpectedOutput)
	assert.True(t, cp.Hidden)

	assert.Nil(t, CloneTests(nil))
	scalar := CloneTests([]TestCase{{Input: "a", ExpectedOutput: "b"}, {Input: "c"}})
	assert.Equal(t, []TestCase{{Input: "a", ExpectedOutput: "b"}, {Input: "c"}}, scalar)
}
