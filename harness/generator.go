// Package harness turns a learner's raw source into an instrumented
// program that calls the submission's entry point once per test case and
// prints one tagged line per test, in test order.
package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// Result tags printed by every generated harness
const (
	ResultPrefix = "RESULT: "
	ErrorPrefix  = "ERROR - "
)

// Warnings returned when a source is passed through unchanged
const (
	WarnUnsupportedLanguage = "no harness strategy for language"
	WarnNoEntryPoint        = "no entry point detected"
	WarnHasProgramEntry     = "source already defines a program entry point"
	WarnNoInputs            = "no test inputs"
)

// Result is the outcome of Generate. When Wrapped is false Source is the
// original text and Warning says why; this is never fatal.
type Result struct {
	Source     string
	Wrapped    bool
	EntryPoint EntryPoint
	Warning    string
}

// strategy is one row of the per-language dispatch table.
type strategy struct {
	programEntry *regexp.Regexp
	matchers     []matcher
	literal      literal
	// call builds the invocation expression for an entry point
	call func(ep EntryPoint, args string) string
	// render assembles the final program from the source and call expressions
	render func(source string, calls []string) string
}

func plainCall(ep EntryPoint, args string) string {
	return ep.Name + "(" + args + ")"
}

func constructedCall(ctor string) func(EntryPoint, string) string {
	return func(ep EntryPoint, args string) string {
		if ep.Receiver == "" {
			return plainCall(ep, args)
		}
		return fmt.Sprintf(ctor, ep.Receiver) + "." + ep.Name + "(" + args + ")"
	}
}

var strategies = map[Language]strategy{
	Python: {
		programEntry: pyProgramEntry,
		matchers: []matcher{
			functionMatcher(pyPreferredFunc),
			classMethodMatcher(pySolutionClass, pyMethod),
			functionMatcher(pyAnyFunc),
		},
		literal: pythonLiteral,
		call:    constructedCall("%s()"),
		render:  renderPython,
	},
	JavaScript: {
		matchers: []matcher{
			functionMatcher(jsFunction),
			functionMatcher(jsArrow),
			classMethodMatcher(jsSolutionClass, jsMethod),
		},
		literal: javascriptLiteral,
		call:    constructedCall("new %s()"),
		render:  renderJavaScript(false),
	},
	TypeScript: {
		matchers: []matcher{
			functionMatcher(jsFunction),
			functionMatcher(jsArrow),
			classMethodMatcher(jsSolutionClass, jsMethod),
		},
		literal: javascriptLiteral,
		call:    constructedCall("new %s()"),
		render:  renderJavaScript(true),
	},
	Java: {
		programEntry: javaProgramEntry,
		matchers: []matcher{
			classMethodMatcher(javaSolution, javaMethod),
			classMethodMatcher(javaAnyClass, javaMethod),
		},
		literal: javaLiteral,
		call:    constructedCall("new %s()"),
		render:  renderJava,
	},
	CPP: {
		programEntry: cppProgramEntry,
		matchers: []matcher{
			classMethodMatcher(cppSolution, cppMethod),
			functionMatcher(cppFunction),
		},
		literal: cppArg,
		call:    constructedCall("%s()"),
		render:  renderCPP,
	},
	Go: {
		programEntry: goProgramEntry,
		matchers: []matcher{
			functionMatcher(goPreferredFunc),
			functionMatcher(goAnyFunc),
		},
		literal: goLiteral,
		call:    plainCall,
		render:  renderGo,
	},
	Ruby: {
		matchers: []matcher{
			functionMatcher(rbPreferredFunc),
			functionMatcher(rbAnyFunc),
		},
		literal: rubyLiteral,
		call:    plainCall,
		render:  renderRuby,
	},
}

// Generate wraps source so that running it prints one tagged result line
// per input, in input order. Inputs that already look like call
// expressions are emitted verbatim.
func Generate(source string, lang Language, inputs []string) Result {
	unchanged := func(warning string) Result {
		return Result{Source: source, Warning: warning}
	}

	strat, ok := strategies[lang]
	if !ok {
		return unchanged(WarnUnsupportedLanguage)
	}
	if len(inputs) == 0 {
		return unchanged(WarnNoInputs)
	}
	if strat.programEntry != nil && strat.programEntry.MatchString(source) {
		return unchanged(WarnHasProgramEntry)
	}

	ep, found := detectEntryPoint(strat.matchers, source)
	if !found {
		return unchanged(WarnNoEntryPoint)
	}

	calls := make([]string, len(inputs))
	for i, input := range inputs {
		if IsCallExpression(input) {
			calls[i] = strings.TrimSpace(input)
			continue
		}
		calls[i] = strat.call(ep, joinValues(coerceArgs(input), strat.literal))
	}

	return Result{
		Source:     strat.render(source, calls),
		Wrapped:    true,
		EntryPoint: ep,
	}
}

func renderPython(source string, calls []string) string {
	var b strings.Builder
	b.WriteString(source)
	b.WriteString(`

import json as __gb_json


def __gb_show(value):
    return __gb_json.dumps(value, separators=(",", ":"), sort_keys=True)

`)
	for _, call := range calls {
		fmt.Fprintf(&b, `
try:
    print(%q + __gb_show(%s))
except Exception as __gb_err:
    print(%q + str(__gb_err))
`, ResultPrefix, call, ResultPrefix+ErrorPrefix)
	}
	return b.String()
}

func renderJavaScript(typed bool) func(string, []string) string {
	showSig, catchVar := "function __gb_show(value)", "__gb_err"
	if typed {
		showSig, catchVar = "function __gb_show(value: unknown): string", "__gb_err: any"
	}
	return func(source string, calls []string) string {
		var b strings.Builder
		b.WriteString(source)
		fmt.Fprintf(&b, `

%s {
  return String(JSON.stringify(value));
}
`, showSig)
		for _, call := range calls {
			fmt.Fprintf(&b, `
try {
  console.log(%q + __gb_show(%s));
} catch (%s) {
  console.log(%q + (__gb_err && __gb_err.message ? __gb_err.message : String(__gb_err)));
}
`, ResultPrefix, call, catchVar, ResultPrefix+ErrorPrefix)
		}
		return b.String()
	}
}

func renderRuby(source string, calls []string) string {
	var b strings.Builder
	b.WriteString("require 'json'\n\n")
	b.WriteString(source)
	b.WriteString(`

def __gb_show(value)
  value.is_a?(String) ? value.to_json : JSON.generate(value)
end
`)
	for _, call := range calls {
		fmt.Fprintf(&b, `
begin
  puts %q + __gb_show(%s)
rescue StandardError => e
  puts %q + e.message
end
`, ResultPrefix, call, ResultPrefix+ErrorPrefix)
	}
	return b.String()
}

const javaHelpers = `
    static String __gbJson(Object o) {
        if (o == null) return "null";
        if (o instanceof String || o instanceof Character) {
            return "\"" + o.toString().replace("\\", "\\\\").replace("\"", "\\\"")
                .replace("\n", "\\n").replace("\r", "\\r").replace("\t", "\\t") + "\"";
        }
        if (o.getClass().isArray()) {
            StringBuilder sb = new StringBuilder("[");
            int n = java.lang.reflect.Array.getLength(o);
            for (int i = 0; i < n; i++) {
                if (i > 0) sb.append(',');
                sb.append(__gbJson(java.lang.reflect.Array.get(o, i)));
            }
            return sb.append(']').toString();
        }
        if (o instanceof Iterable) {
            StringBuilder sb = new StringBuilder("[");
            boolean first = true;
            for (Object item : (Iterable<?>) o) {
                if (!first) sb.append(',');
                sb.append(__gbJson(item));
                first = false;
            }
            return sb.append(']').toString();
        }
        if (o instanceof java.util.Map) {
            java.util.TreeMap<String, Object> sorted = new java.util.TreeMap<>();
            for (java.util.Map.Entry<?, ?> e : ((java.util.Map<?, ?>) o).entrySet()) {
                sorted.put(String.valueOf(e.getKey()), e.getValue());
            }
            StringBuilder sb = new StringBuilder("{");
            boolean first = true;
            for (java.util.Map.Entry<String, Object> e : sorted.entrySet()) {
                if (!first) sb.append(',');
                sb.append(__gbJson(e.getKey())).append(':').append(__gbJson(e.getValue()));
                first = false;
            }
            return sb.append('}').toString();
        }
        return String.valueOf(o);
    }

    static String __gbShow(Object o) {
        return __gbJson(o);
    }
`

func renderJava(source string, calls []string) string {
	var b strings.Builder
	// Main must be the only public class in Main.java
	b.WriteString(javaPublicClass.ReplaceAllString(source, "$1"))
	b.WriteString("\n\npublic class Main {\n    public static void main(String[] args) {\n")
	for _, call := range calls {
		fmt.Fprintf(&b, `        try {
            Object __gbResult = %s;
            System.out.println(%q + __gbShow(__gbResult));
        } catch (Throwable __gbErr) {
            System.out.println(%q + __gbErr.getMessage());
        }
`, call, ResultPrefix, ResultPrefix+ErrorPrefix)
	}
	b.WriteString("    }\n")
	b.WriteString(javaHelpers)
	b.WriteString("}\n")
	return b.String()
}

const cppPrelude = `#include <cstdio>
#include <iostream>
#include <sstream>
#include <stdexcept>
#include <string>
#include <vector>
`

const cppHelpers = `
template <typename T> static T& __gb_lv(T&& v) { return v; }
static std::string __gb_json(const std::string& s) {
    std::string out = "\"";
    for (unsigned char c : s) {
        switch (c) {
        case '"': out += "\\\""; break;
        case '\\': out += "\\\\"; break;
        case '\n': out += "\\n"; break;
        case '\r': out += "\\r"; break;
        case '\t': out += "\\t"; break;
        default:
            if (c < 0x20) {
                char buf[8];
                std::snprintf(buf, sizeof(buf), "\\u%04x", c);
                out += buf;
            } else {
                out += static_cast<char>(c);
            }
        }
    }
    return out + "\"";
}
static std::string __gb_json(const char* s) { return __gb_json(std::string(s)); }
static std::string __gb_json(bool b) { return b ? "true" : "false"; }
template <typename T> static std::string __gb_json(const T& v) {
    std::ostringstream out;
    out << std::boolalpha << v;
    return out.str();
}
template <typename T> static std::string __gb_json(const std::vector<T>& v) {
    std::string s = "[";
    for (size_t i = 0; i < v.size(); ++i) {
        if (i) s += ",";
        s += __gb_json(v[i]);
    }
    return s + "]";
}
static std::string __gb_show(const std::string& s) { return __gb_json(s); }
static std::string __gb_show(const char* s) { return __gb_json(std::string(s)); }
template <typename T> static std::string __gb_show(const T& v) { return __gb_json(v); }
`

func renderCPP(source string, calls []string) string {
	var b strings.Builder
	b.WriteString(cppPrelude)
	b.WriteString(source)
	b.WriteString("\n")
	b.WriteString(cppHelpers)
	b.WriteString("\nint main() {\n")
	for _, call := range calls {
		fmt.Fprintf(&b, `    try {
        std::cout << %q << __gb_show(%s) << std::endl;
    } catch (const std::exception& __gb_err) {
        std::cout << %q << __gb_err.what() << std::endl;
    } catch (...) {
        std::cout << %q << "unknown exception" << std::endl;
    }
`, ResultPrefix, call, ResultPrefix+ErrorPrefix, ResultPrefix+ErrorPrefix)
	}
	b.WriteString("    return 0;\n}\n")
	return b.String()
}

var goPackageClause = regexp.MustCompile(`(?m)^package\s+\w+\s*$`)

// renderGo guards all calls with one deferred recover: Go has no
// statement-level try, so a panic ends the run after reporting itself and
// later tests print nothing.
func renderGo(source string, calls []string) string {
	body := source
	if loc := goPackageClause.FindStringIndex(body); loc != nil {
		body = body[:loc[0]] + body[loc[1]:]
	}

	var b strings.Builder
	b.WriteString(`package main

import (
	__gb_json "encoding/json"
	__gb_fmt "fmt"
)
`)
	b.WriteString(body)
	b.WriteString(`

func __gb_show(v interface{}) string {
	out, err := __gb_json.Marshal(v)
	if err != nil {
		return __gb_fmt.Sprint(v)
	}
	return string(out)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
`)
	fmt.Fprintf(&b, "\t\t\t__gb_fmt.Println(%q + __gb_fmt.Sprint(r))\n", ResultPrefix+ErrorPrefix)
	b.WriteString("\t\t}\n\t}()\n")
	for _, call := range calls {
		fmt.Fprintf(&b, "\t__gb_fmt.Println(%q + __gb_show(%s))\n", ResultPrefix, call)
	}
	b.WriteString("}\n")
	return b.String()
}
