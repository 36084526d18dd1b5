package harness

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResults(t *testing.T) {
	stdout := "debug noise\nRESULT: 3\r\nRESULT: ERROR - division by zero\n  RESULT: [1,2]\nRESULT: \n"

	lines := ParseResults(stdout)
	require.Len(t, lines, 4)
	assert.Equal(t, Line{Value: "3"}, lines[0])
	assert.Equal(t, Line{Value: "division by zero", Failed: true}, lines[1])
	assert.Equal(t, Line{Value: "[1,2]"}, lines[2])
	assert.Equal(t, Line{Value: ""}, lines[3])
}

func TestParseResultsEmpty(t *testing.T) {
	assert.Empty(t, ParseResults(""))
	assert.Empty(t, ParseResults("no tags here\n"))
}

func TestParseResultsDecodesStrings(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Line
	}{
		{"MultiLine", `RESULT: "*\n**"`, Line{Value: "*\n**"}},
		{"QuotedDigits", `RESULT: "3"`, Line{Value: "3"}},
		{"EmbeddedQuote", `RESULT: "say \"hi\""`, Line{Value: `say "hi"`}},
		{"Unicode", `RESULT: "café"`, Line{Value: "café"}},
		{"Unterminated", `RESULT: "open`, Line{Value: `"open`}},
		{"Array", `RESULT: ["a\nb"]`, Line{Value: `["a\nb"]`}},
		{"ErrorUntouched", `RESULT: ERROR - "boom"`, Line{Value: `"boom"`, Failed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := ParseResults(tt.line + "\n")
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0])
		})
	}
}

func TestStringResultsRoundTrip(t *testing.T) {
	values := []string{"*\n**\n***", "tab\there", `back\slash`, "", "ERROR - not a failure"}

	var stdout strings.Builder
	for _, v := range values {
		encoded, err := json.Marshal(v)
		require.NoError(t, err)
		stdout.WriteString(ResultPrefix + string(encoded) + "\n")
	}

	lines := ParseResults(stdout.String())
	require.Len(t, lines, len(values))
	for i, v := range values {
		assert.Equal(t, Line{Value: v}, lines[i])
	}
}
