package harness

import "regexp"

// EntryPoint is the callable a harness invokes for each test case.
// Receiver is the enclosing class for methods and empty for free functions.
type EntryPoint struct {
	Name     string
	Receiver string
}

// matcher finds an entry point in a source. Matchers of a language are
// tried in order and the first hit wins, even when a later matcher would
// find a "better" candidate.
type matcher func(source string) (EntryPoint, bool)

// reserved names are never treated as entry points
var reserved = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "constructor": true, "main": true, "init": true,
	"function": true, "sizeof": true, "new": true, "else": true,
}

// functionMatcher returns the first capture of re that is not reserved.
func functionMatcher(re *regexp.Regexp) matcher {
	return func(source string) (EntryPoint, bool) {
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			if !reserved[m[1]] {
				return EntryPoint{Name: m[1]}, true
			}
		}
		return EntryPoint{}, false
	}
}

// classMethodMatcher finds a class with classRe, then the first method
// declared after it with methodRe.
func classMethodMatcher(classRe, methodRe *regexp.Regexp) matcher {
	return func(source string) (EntryPoint, bool) {
		loc := classRe.FindStringSubmatchIndex(source)
		if loc == nil {
			return EntryPoint{}, false
		}
		class := source[loc[2]:loc[3]]
		for _, m := range methodRe.FindAllStringSubmatch(source[loc[1]:], -1) {
			if !reserved[m[1]] && m[1] != class {
				return EntryPoint{Name: m[1], Receiver: class}, true
			}
		}
		return EntryPoint{}, false
	}
}

var (
	pyProgramEntry  = regexp.MustCompile(`(?m)^if\s+__name__\s*==`)
	pyPreferredFunc = regexp.MustCompile(`(?m)^def\s+(solution|solve)\s*\(`)
	pySolutionClass = regexp.MustCompile(`(?m)^class\s+(Solution)\b`)
	pyMethod        = regexp.MustCompile(`(?m)^[ \t]+def\s+([A-Za-z]\w*)\s*\(\s*self`)
	pyAnyFunc       = regexp.MustCompile(`(?m)^def\s+([A-Za-z_]\w*)\s*\(`)

	jsFunction      = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*[(<]`)
	jsArrow         = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|[A-Za-z_$][\w$]*\s*=>)`)
	jsSolutionClass = regexp.MustCompile(`(?m)^\s*(?:export\s+)?class\s+([A-Za-z_$][\w$]*)`)
	jsMethod        = regexp.MustCompile(`(?m)^\s+(?:public\s+|static\s+|async\s+)*([A-Za-z_$][\w$]*)\s*\([^)]*\)\s*(?::[^{]+)?\{`)

	javaProgramEntry = regexp.MustCompile(`static\s+void\s+main\s*\(`)
	javaPublicClass  = regexp.MustCompile(`(?m)^\s*public\s+((?:final\s+|abstract\s+)?class\s)`)
	javaSolution     = regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:final\s+)?class\s+(Solution)\b`)
	javaAnyClass     = regexp.MustCompile(`(?m)^\s*(?:public\s+)?(?:final\s+)?class\s+([A-Za-z_]\w*)`)
	javaMethod       = regexp.MustCompile(`(?m)^\s+(?:public\s+|protected\s+|private\s+)?(?:static\s+)?(?:final\s+)?[\w<>\[\],.? ]+?\s+([A-Za-z_]\w*)\s*\([^;{)]*\)\s*(?:throws\s+[\w.,\s]+)?\{`)

	cppProgramEntry = regexp.MustCompile(`\bint\s+main\s*\(`)
	cppSolution     = regexp.MustCompile(`(?m)^\s*(?:class|struct)\s+(Solution)\b`)
	cppMethod       = regexp.MustCompile(`(?m)^\s+(?:static\s+|inline\s+|virtual\s+)*[\w:<>,*&]+(?:\s*<[^>]*>)?[\s*&]+([A-Za-z_]\w*)\s*\([^;{]*\)\s*(?:const\s*)?\{`)
	cppFunction     = regexp.MustCompile(`(?m)^(?:static\s+|inline\s+)*[\w:<>,*&]+(?:\s*<[^>]*>)?[\s*&]+([A-Za-z_]\w*)\s*\([^;{]*\)\s*\{`)

	goProgramEntry  = regexp.MustCompile(`(?m)^func\s+main\s*\(\s*\)`)
	goPreferredFunc = regexp.MustCompile(`(?m)^func\s+(Solve|Solution|solve|solution)\s*\(`)
	goAnyFunc       = regexp.MustCompile(`(?m)^func\s+([A-Za-z_]\w*)\s*\(`)

	rbPreferredFunc = regexp.MustCompile(`(?m)^def\s+(solution|solve)\b`)
	rbAnyFunc       = regexp.MustCompile(`(?m)^def\s+([a-z_]\w*[?!]?)`)
)

// detectEntryPoint runs the matchers in order.
func detectEntryPoint(matchers []matcher, source string) (EntryPoint, bool) {
	for _, match := range matchers {
		if ep, ok := match(source); ok {
			return ep, true
		}
	}
	return EntryPoint{}, false
}
