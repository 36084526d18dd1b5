package harness

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// IsCallExpression reports whether a raw test input is already a full call
// such as "add(1, 2)"; those are emitted verbatim.
func IsCallExpression(input string) bool {
	return strings.Contains(input, "(") && strings.Contains(input, ")")
}

// coerceArgs turns a raw test input into positional argument values.
// A JSON array spreads into arguments, any other JSON value is a single
// argument, and input that is not JSON is passed as one string.
func coerceArgs(input string) []any {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil || dec.More() {
		return []any{input}
	}

	if arr, ok := value.([]any); ok {
		return arr
	}
	return []any{value}
}

// Canonical re-serializes a JSON array, object, number or literal as
// compact JSON with sorted keys. Anything else, including a quoted JSON
// string, is returned trimmed but otherwise unchanged.
func Canonical(raw string) string {
	trimmed := strings.TrimSpace(raw)
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil || dec.More() {
		return trimmed
	}
	if _, ok := value.(string); ok {
		return trimmed
	}
	return compactJSON(value)
}

// CanonicalValue serializes an already-decoded expected value. Strings are
// kept verbatim; any other value becomes compact JSON.
func CanonicalValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return compactJSON(v)
	}
}

func compactJSON(value any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// literal renders a decoded JSON value as a source literal.
type literal func(value any) string

func quoteJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinValues(values []any, render literal) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = render(v)
	}
	return strings.Join(parts, ", ")
}

func pythonLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case json.Number:
		return v.String()
	case string:
		return quoteJSON(v)
	case []any:
		return "[" + joinValues(v, pythonLiteral) + "]"
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			parts = append(parts, quoteJSON(k)+": "+pythonLiteral(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "None"
	}
}

func javascriptLiteral(value any) string {
	if s, ok := value.(string); ok {
		return quoteJSON(s)
	}
	return compactJSON(value)
}

func rubyLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case string:
		return strings.ReplaceAll(quoteJSON(v), "#", `\#`)
	case []any:
		return "[" + joinValues(v, rubyLiteral) + "]"
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			parts = append(parts, rubyLiteral(k)+" => "+rubyLiteral(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "nil"
	}
}

// scalarKind classifies values for statically typed targets.
type scalarKind int

const (
	kindMixed scalarKind = iota
	kindInt
	kindFloat
	kindString
	kindBool
)

func kindOf(value any) scalarKind {
	switch v := value.(type) {
	case bool:
		return kindBool
	case string:
		return kindString
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return kindInt
		}
		return kindFloat
	default:
		return kindMixed
	}
}

// elementKind returns the common kind of all elements, widening int to
// float when both appear. Empty slices default to int.
func elementKind(values []any) scalarKind {
	kind := kindInt
	for i, v := range values {
		k := kindOf(v)
		switch {
		case i == 0:
			kind = k
		case k == kind:
		case (k == kindFloat && kind == kindInt) || (k == kindInt && kind == kindFloat):
			kind = kindFloat
		default:
			return kindMixed
		}
	}
	return kind
}

// arrayDepth returns the nesting depth and innermost element kind of a
// rectangular-typed array, or ok=false when element shapes disagree.
func arrayDepth(values []any) (depth int, kind scalarKind, ok bool) {
	if len(values) == 0 {
		return 1, kindInt, true
	}
	if _, nested := values[0].([]any); !nested {
		k := elementKind(values)
		return 1, k, k != kindMixed
	}
	depth, kind = -1, kindInt
	for _, v := range values {
		inner, isArr := v.([]any)
		if !isArr {
			return 0, kindMixed, false
		}
		d, k, innerOK := arrayDepth(inner)
		if !innerOK {
			return 0, kindMixed, false
		}
		if depth == -1 {
			depth, kind = d, k
			continue
		}
		if d != depth {
			return 0, kindMixed, false
		}
		if k != kind {
			if (k == kindFloat && kind == kindInt) || (k == kindInt && kind == kindFloat) {
				kind = kindFloat
			} else {
				return 0, kindMixed, false
			}
		}
	}
	return depth + 1, kind, true
}

func javaScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		if kindOf(v) == kindInt {
			if n, _ := v.Int64(); n > 2147483647 || n < -2147483648 {
				return v.String() + "L"
			}
		}
		return v.String()
	case string:
		return quoteJSON(v)
	default:
		return "null"
	}
}

var javaTypeNames = map[scalarKind]string{
	kindInt: "int", kindFloat: "double", kindString: "String", kindBool: "boolean", kindMixed: "Object",
}

func javaLiteral(value any) string {
	switch v := value.(type) {
	case []any:
		depth, kind, ok := arrayDepth(v)
		if !ok {
			return "new Object[]{" + joinValues(v, javaLiteral) + "}"
		}
		return "new " + javaTypeNames[kind] + strings.Repeat("[]", depth) + javaBraces(v)
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			parts = append(parts, quoteJSON(k)+", "+javaLiteral(v[k]))
		}
		return "java.util.Map.of(" + strings.Join(parts, ", ") + ")"
	default:
		if kindOf(value) == kindFloat {
			return value.(json.Number).String() + "d"
		}
		return javaScalar(value)
	}
}

func javaBraces(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if inner, ok := v.([]any); ok {
			parts[i] = javaBraces(inner)
		} else {
			parts[i] = javaScalar(v)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var cppTypeNames = map[scalarKind]string{
	kindInt: "int", kindFloat: "double", kindString: "std::string", kindBool: "bool",
}

func cppLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "nullptr"
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case string:
		return "std::string(" + quoteJSON(v) + ")"
	case []any:
		depth, kind, ok := arrayDepth(v)
		if !ok {
			// no heterogeneous container in the standard library; hand over the JSON text
			return "std::string(" + quoteJSON(compactJSON(v)) + ")"
		}
		typ := cppTypeNames[kind]
		for i := 0; i < depth; i++ {
			typ = "std::vector<" + typ + ">"
		}
		return typ + cppBraces(v)
	default:
		return "std::string(" + quoteJSON(compactJSON(v)) + ")"
	}
}

// cppArg binds container and string arguments through __gb_lv so they can
// be passed to non-const reference parameters.
func cppArg(value any) string {
	switch value.(type) {
	case string, []any, map[string]any:
		return "__gb_lv(" + cppLiteral(value) + ")"
	default:
		return cppLiteral(value)
	}
}

func cppBraces(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if inner, ok := v.([]any); ok {
			parts[i] = cppBraces(inner)
		} else {
			parts[i] = cppLiteral(v)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var goTypeNames = map[scalarKind]string{
	kindInt: "int", kindFloat: "float64", kindString: "string", kindBool: "bool", kindMixed: "interface{}",
}

func goLiteral(value any) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case string:
		return strconv.Quote(v)
	case []any:
		depth, kind, ok := arrayDepth(v)
		if !ok {
			return "[]interface{}{" + joinValues(v, goLiteral) + "}"
		}
		return strings.Repeat("[]", depth) + goTypeNames[kind] + goBraces(v)
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			parts = append(parts, strconv.Quote(k)+": "+goLiteral(v[k]))
		}
		return "map[string]interface{}{" + strings.Join(parts, ", ") + "}"
	default:
		return "nil"
	}
}

func goBraces(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if inner, ok := v.([]any); ok {
			parts[i] = goBraces(inner)
		} else {
			parts[i] = goLiteral(v)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
