package judge

import (
	"fmt"
	"strings"
)

// languageIDs maps user-facing names to judge runtime ids. The table is
// read-only after init and shared by every client.
var languageIDs = map[string]int{
	"assembly":    45,
	"bash":        46,
	"basic":       47,
	"c":           50,
	"c-clang":     75,
	"cpp":         54,
	"c++":         54,
	"cpp-clang":   76,
	"clojure":     86,
	"csharp":      51,
	"c#":          51,
	"cobol":       77,
	"commonlisp":  55,
	"d":           56,
	"elixir":      57,
	"erlang":      58,
	"executable":  44,
	"fsharp":      87,
	"fortran":     59,
	"go":          60,
	"golang":      60,
	"groovy":      88,
	"haskell":     61,
	"java":        62,
	"javascript":  63,
	"js":          63,
	"node":        63,
	"nodejs":      63,
	"kotlin":      78,
	"lua":         64,
	"objective-c": 79,
	"ocaml":       65,
	"octave":      66,
	"pascal":      67,
	"perl":        85,
	"php":         68,
	"plaintext":   43,
	"prolog":      69,
	"python2":     70,
	"python":      71,
	"python3":     71,
	"py":          71,
	"r":           80,
	"ruby":        72,
	"rb":          72,
	"rust":        73,
	"scala":       81,
	"sql":         82,
	"swift":       83,
	"typescript":  74,
	"ts":          74,
	"vbnet":       84,
}

// ResolveLanguageID returns the judge runtime id for a language name
func ResolveLanguageID(name string) (int, error) {
	if id, ok := languageIDs[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}
