package harness

import (
	"bufio"
	"encoding/json"
	"strings"
)

// Line is one tagged result printed by a harness
type Line struct {
	Value  string
	Failed bool
}

// ParseResults extracts the tagged result lines from program output, in
// the order they were printed. Untagged output is ignored. Harnesses print
// string results as JSON strings so that one result is always one line;
// those are decoded back to their text here.
func ParseResults(stdout string) []Line {
	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), "\r")
		idx := strings.Index(text, ResultPrefix)
		if idx < 0 {
			continue
		}
		value := text[idx+len(ResultPrefix):]
		if strings.HasPrefix(value, ErrorPrefix) {
			lines = append(lines, Line{Value: strings.TrimPrefix(value, ErrorPrefix), Failed: true})
			continue
		}
		lines = append(lines, Line{Value: decodeString(value)})
	}
	return lines
}

// decodeString unquotes a JSON string value. Anything else is returned as is.
func decodeString(value string) string {
	if !strings.HasPrefix(value, `"`) {
		return value
	}
	var text string
	if err := json.Unmarshal([]byte(value), &text); err != nil {
		return value
	}
	return text
}
