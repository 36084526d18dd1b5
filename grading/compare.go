package grading

import (
	"fmt"
	"strings"

	"github.com/isdmx/gradebox/harness"
)

// Matches compares a harness result value against an expected value. A
// string expectation is compared as text after trimming, exactly as on the
// stdin path. Any other expectation is compared as compact JSON, so
// "[1, 2]" matches [1,2] and object keys may come in any order. A nil
// expectation always matches.
func Matches(actual string, expected any) bool {
	switch want := expected.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(actual) == strings.TrimSpace(want)
	default:
		return harness.Canonical(actual) == harness.CanonicalValue(want)
	}
}

// ValidationError reports a malformed grading request. It is returned
// immediately and never retried.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Summary aggregates a verdict list
type Summary struct {
	Passed    int  `json:"passed"`
	Total     int  `json:"total"`
	AllPassed bool `json:"allPassed"`
}

// Summarize counts passed verdicts. An empty list never counts as passed.
func Summarize(verdicts []Verdict) Summary {
	s := Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		if v.Passed {
			s.Passed++
		}
	}
	s.AllPassed = s.Total > 0 && s.Passed == s.Total
	return s
}
