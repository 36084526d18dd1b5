package harness

import "strings"

// Language identifies a harness strategy. Unknown is an explicit variant
// with no strategy; sources in it are passed through untouched.
type Language int

// Supported languages
const (
	Unknown Language = iota
	Python
	JavaScript
	TypeScript
	Java
	CPP
	Go
	Ruby
)

var languageNames = map[Language]string{
	Unknown:    "unknown",
	Python:     "python",
	JavaScript: "javascript",
	TypeScript: "typescript",
	Java:       "java",
	CPP:        "cpp",
	Go:         "go",
	Ruby:       "ruby",
}

var languageAliases = map[string]Language{
	"python":     Python,
	"python3":    Python,
	"py":         Python,
	"javascript": JavaScript,
	"js":         JavaScript,
	"node":       JavaScript,
	"nodejs":     JavaScript,
	"typescript": TypeScript,
	"ts":         TypeScript,
	"java":       Java,
	"cpp":        CPP,
	"c++":        CPP,
	"cxx":        CPP,
	"go":         Go,
	"golang":     Go,
	"ruby":       Ruby,
	"rb":         Ruby,
}

// ParseLanguage maps a user-facing language name to its Language.
// Unrecognized names map to Unknown.
func ParseLanguage(name string) Language {
	if lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return lang
	}
	return Unknown
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return languageNames[Unknown]
}
