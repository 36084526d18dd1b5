package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		name     string
		expected Language
	}{
		{"python", Python},
		{"Python3", Python},
		{"js", JavaScript},
		{"nodejs", JavaScript},
		{"ts", TypeScript},
		{"java", Java},
		{"c++", CPP},
		{"golang", Go},
		{"rb", Ruby},
		{"cobol", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLanguage(tt.name))
		})
	}

	assert.Equal(t, "cpp", CPP.String())
	assert.Equal(t, "unknown", Language(99).String())
}

func TestGenerateEmitsOneGuardedCallPerInput(t *testing.T) {
	inputs := []string{"[1, 2]", "[3, 4]", "[5, 6]"}

	tests := []struct {
		lang   Language
		source string
		calls  []string
	}{
		{Python, "def add(a, b):\n    return a + b\n", []string{"add(1, 2)", "add(3, 4)", "add(5, 6)"}},
		{JavaScript, "function add(a, b) {\n  return a + b;\n}\n", []string{"add(1, 2)", "add(3, 4)", "add(5, 6)"}},
		{TypeScript, "const add = (a: number, b: number): number => a + b;\n", []string{"add(1, 2)", "add(3, 4)", "add(5, 6)"}},
		{Java, "class Solution {\n    public int add(int a, int b) {\n        return a + b;\n    }\n}\n", []string{"new Solution().add(1, 2)", "new Solution().add(3, 4)", "new Solution().add(5, 6)"}},
		{CPP, "int add(int a, int b) {\n    return a + b;\n}\n", []string{"add(1, 2)", "add(3, 4)", "add(5, 6)"}},
		{Go, "package main\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n", []string{"Add(1, 2)", "Add(3, 4)", "Add(5, 6)"}},
		{Ruby, "def add(a, b)\n  a + b\nend\n", []string{"add(1, 2)", "add(3, 4)", "add(5, 6)"}},
	}

	for _, tt := range tests {
		t.Run(tt.lang.String(), func(t *testing.T) {
			res := Generate(tt.source, tt.lang, inputs)
			require.True(t, res.Wrapped, res.Warning)
			assert.Empty(t, res.Warning)

			// every call appears once and in input order
			last := -1
			for _, call := range tt.calls {
				assert.Equal(t, 1, strings.Count(res.Source, call), call)
				idx := strings.Index(res.Source, call)
				assert.Greater(t, idx, last, "calls must keep input order")
				last = idx
			}
			assert.Contains(t, res.Source, ResultPrefix)
			assert.Contains(t, res.Source, ResultPrefix+ErrorPrefix)
		})
	}
}

func TestGeneratePassesThroughCallExpressions(t *testing.T) {
	source := "def add(a, b):\n    return a + b\n"
	res := Generate(source, Python, []string{"add(10, 20)", "[1, 2]"})

	require.True(t, res.Wrapped)
	assert.Contains(t, res.Source, `print("RESULT: " + __gb_show(add(10, 20)))`)
	assert.Contains(t, res.Source, `print("RESULT: " + __gb_show(add(1, 2)))`)
}

func TestGenerateCoercesInputs(t *testing.T) {
	source := "def f(x):\n    return x\n"

	tests := []struct {
		name  string
		input string
		call  string
	}{
		{"JSONArraySpreads", `[[1, 2], "a"]`, `f([1, 2], "a")`},
		{"JSONScalar", `42`, `f(42)`},
		{"JSONObject", `{"b": 1, "a": true}`, `f({"a": True, "b": 1})`},
		{"JSONNull", `null`, `f(None)`},
		{"RawString", `hello world`, `f("hello world")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Generate(source, Python, []string{tt.input})
			require.True(t, res.Wrapped)
			assert.Contains(t, res.Source, tt.call)
		})
	}
}

func TestGenerateTypedLiterals(t *testing.T) {
	t.Run("Go", func(t *testing.T) {
		res := Generate("func Sum(xs []int) int { return 0 }\n", Go, []string{`[[1, 2, 3]]`, `[["a", "b"]]`})
		require.True(t, res.Wrapped)
		assert.Contains(t, res.Source, "Sum([]int{1, 2, 3})")
		assert.Contains(t, res.Source, `Sum([]string{"a", "b"})`)
		assert.True(t, strings.HasPrefix(res.Source, "package main\n"))
		assert.Equal(t, 1, strings.Count(res.Source, "package "), "the original package clause is replaced")
	})

	t.Run("Java", func(t *testing.T) {
		src := "public class Solution {\n    public int sum(int[][] grid) {\n        return 0;\n    }\n}\n"
		res := Generate(src, Java, []string{`[[[1, 2], [3]]]`})
		require.True(t, res.Wrapped)
		assert.Contains(t, res.Source, "new Solution().sum(new int[][]{{1, 2}, {3}})")
		assert.NotContains(t, res.Source, "public class Solution")
		assert.Contains(t, res.Source, "public class Main")
	})

	t.Run("CPP", func(t *testing.T) {
		src := "#include <vector>\nclass Solution {\npublic:\n    int count(std::vector<int>& nums) {\n        return nums.size();\n    }\n};\n"
		res := Generate(src, CPP, []string{`[[1, 2.5]]`})
		require.True(t, res.Wrapped)
		assert.Equal(t, EntryPoint{Name: "count", Receiver: "Solution"}, res.EntryPoint)
		assert.Contains(t, res.Source, "Solution().count(__gb_lv(std::vector<double>{1, 2.5}))")
	})

	t.Run("Ruby", func(t *testing.T) {
		res := Generate("def greet(name)\n  name\nend\n", Ruby, []string{`"#{x}"`})
		require.True(t, res.Wrapped)
		assert.Contains(t, res.Source, `greet("\#{x}")`)
	})
}

func TestEntryPointPriority(t *testing.T) {
	tests := []struct {
		name     string
		lang     Language
		source   string
		expected EntryPoint
	}{
		{
			name:     "PythonPreferredBeatsEarlierHelper",
			lang:     Python,
			source:   "def helper(x):\n    return x\n\ndef solve(x):\n    return helper(x)\n",
			expected: EntryPoint{Name: "solve"},
		},
		{
			name:     "PythonSolutionClassBeatsFreeFunction",
			lang:     Python,
			source:   "def helper(x):\n    return x\n\nclass Solution:\n    def __init__(self):\n        pass\n\n    def twoSum(self, nums, target):\n        return []\n",
			expected: EntryPoint{Name: "twoSum", Receiver: "Solution"},
		},
		{
			name:     "PythonFirstFunctionFallback",
			lang:     Python,
			source:   "def first(x):\n    return x\n\ndef second(x):\n    return x\n",
			expected: EntryPoint{Name: "first"},
		},
		{
			name:     "JavaScriptDeclarationBeatsArrow",
			lang:     JavaScript,
			source:   "const helper = (x) => x;\nfunction main2(x) { return helper(x); }\n",
			expected: EntryPoint{Name: "main2"},
		},
		{
			name:     "JavaScriptClassMethodSkipsConstructor",
			lang:     JavaScript,
			source:   "class Solution {\n  constructor() {}\n  maxDepth(root) {\n    return 0;\n  }\n}\n",
			expected: EntryPoint{Name: "maxDepth", Receiver: "Solution"},
		},
		{
			name:     "GoPreferredBeatsFirst",
			lang:     Go,
			source:   "func helper() int { return 1 }\n\nfunc Solve(n int) int { return n }\n",
			expected: EntryPoint{Name: "Solve"},
		},
		{
			name:     "CPPFreeFunction",
			lang:     CPP,
			source:   "#include <string>\nstd::string reverse(std::string s) {\n    return s;\n}\n",
			expected: EntryPoint{Name: "reverse"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Generate(tt.source, tt.lang, []string{"1"})
			require.True(t, res.Wrapped, res.Warning)
			assert.Equal(t, tt.expected, res.EntryPoint)
		})
	}
}

func TestGenerateFallsBackUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		lang    Language
		source  string
		inputs  []string
		warning string
	}{
		{"UnknownLanguage", Unknown, "PROGRAM-ID. HELLO.", []string{"1"}, WarnUnsupportedLanguage},
		{"NoEntryPoint", Python, "print(input())\n", []string{"1"}, WarnNoEntryPoint},
		{"PythonMainGuard", Python, "def f(x):\n    return x\n\nif __name__ == \"__main__\":\n    print(f(1))\n", []string{"1"}, WarnHasProgramEntry},
		{"GoMain", Go, "package main\n\nfunc main() {}\n", []string{"1"}, WarnHasProgramEntry},
		{"CPPMain", CPP, "int main() { return 0; }\n", []string{"1"}, WarnHasProgramEntry},
		{"JavaMain", Java, "public class Main {\n    public static void main(String[] args) {}\n}\n", []string{"1"}, WarnHasProgramEntry},
		{"NoInputs", Python, "def f(x):\n    return x\n", nil, WarnNoInputs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Generate(tt.source, tt.lang, tt.inputs)
			assert.False(t, res.Wrapped)
			assert.Equal(t, tt.source, res.Source)
			assert.Equal(t, tt.warning, res.Warning)
		})
	}
}

func TestGoHarnessUsesSingleRecover(t *testing.T) {
	res := Generate("func Div(a, b int) int { return a / b }\n", Go, []string{"[1, 0]", "[4, 2]"})
	require.True(t, res.Wrapped)
	assert.Equal(t, 1, strings.Count(res.Source, "recover()"))
	assert.Equal(t, 1, strings.Count(res.Source, "func main()"))
}

func TestHarnessesPrintStringsAsJSON(t *testing.T) {
	tests := []struct {
		name     string
		language Language
		source   string
		contains []string
		absent   []string
	}{
		{
			name:     "Python",
			language: Python,
			source:   "def add(a, b):\n    return a + b\n",
			contains: []string{`return __gb_json.dumps(value, separators=(",", ":"), sort_keys=True)`},
			absent:   []string{"isinstance(value, str)"},
		},
		{
			name:     "JavaScript",
			language: JavaScript,
			source:   "function add(a, b) {\n  return a + b;\n}\n",
			contains: []string{"return String(JSON.stringify(value));"},
			absent:   []string{`typeof value === "string"`},
		},
		{
			name:     "Java",
			language: Java,
			source:   "class Solution {\n    public int add(int a, int b) {\n        return a + b;\n    }\n}\n",
			contains: []string{`.replace("\n", "\\n")`, "return __gbJson(o);"},
		},
		{
			name:     "C++",
			language: CPP,
			source:   "int add(int a, int b) {\n    return a + b;\n}\n",
			contains: []string{`case '\n': out += "\\n"; break;`, `case '"': out += "\\\""; break;`, "return __gb_json(s);"},
		},
		{
			name:     "Go",
			language: Go,
			source:   "package main\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n",
			contains: []string{"out, err := __gb_json.Marshal(v)"},
			absent:   []string{"v.(string)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Generate(tt.source, tt.language, []string{"[1, 2]"})
			require.True(t, res.Wrapped, res.Warning)
			for _, s := range tt.contains {
				assert.Contains(t, res.Source, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, res.Source, s)
			}
		})
	}
}
