package judge

import (
	"strconv"
	"strings"

	"github.com/isdmx/gradebox/harness"
)

// Judge status ids
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusRuntimeSIGSEGV    = 7
	StatusRuntimeSIGXFSZ    = 8
	StatusRuntimeSIGFPE     = 9
	StatusRuntimeSIGABRT    = 10
	StatusRuntimeNZEC       = 11
	StatusRuntimeOther      = 12
	StatusInternalError     = 13
	StatusExecFormatError   = 14
)

var statusTexts = map[int]string{
	StatusInQueue:           "In Queue",
	StatusProcessing:        "Processing",
	StatusAccepted:          "Accepted",
	StatusWrongAnswer:       "Wrong Answer",
	StatusTimeLimitExceeded: "Time Limit Exceeded",
	StatusCompilationError:  "Compilation Error",
	StatusRuntimeSIGSEGV:    "Runtime Error (SIGSEGV)",
	StatusRuntimeSIGXFSZ:    "Runtime Error (SIGXFSZ)",
	StatusRuntimeSIGFPE:     "Runtime Error (SIGFPE)",
	StatusRuntimeSIGABRT:    "Runtime Error (SIGABRT)",
	StatusRuntimeNZEC:       "Runtime Error (NZEC)",
	StatusRuntimeOther:      "Runtime Error (Other)",
	StatusInternalError:     "Internal Error",
	StatusExecFormatError:   "Exec Format Error",
}

// StatusText returns the stable text for a status id
func StatusText(id int) string {
	if text, ok := statusTexts[id]; ok {
		return text
	}
	return "Unknown Status (" + strconv.Itoa(id) + ")"
}

// IsTerminal reports whether a job in this status has finished
func IsTerminal(id int) bool {
	return id != StatusInQueue && id != StatusProcessing
}

// IsRuntimeError reports whether the status is one of the runtime error subclasses
func IsRuntimeError(id int) bool {
	return id >= StatusRuntimeSIGSEGV && id <= StatusRuntimeOther
}

// OutputMatches compares actual stdout against an expected value: exact and
// case-sensitive after trimming, with non-string expectations serialized
// as compact JSON first. A nil expectation always matches.
func OutputMatches(stdout string, expected any) bool {
	if expected == nil {
		return true
	}
	return strings.TrimSpace(stdout) == strings.TrimSpace(harness.CanonicalValue(expected))
}

// submissionStatus is the judge's {id, description} pair
type submissionStatus struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// submissionResponse is the body of GET /submissions/{token}
type submissionResponse struct {
	Token         string           `json:"token"`
	Stdout        string           `json:"stdout"`
	Stderr        string           `json:"stderr"`
	CompileOutput string           `json:"compile_output"`
	Message       string           `json:"message"`
	Time          string           `json:"time"`
	Memory        int              `json:"memory"`
	Status        submissionStatus `json:"status"`
}

// normalize maps a raw judge answer onto a JudgeResult
func normalize(resp submissionResponse, expected any) JudgeResult {
	elapsed, _ := strconv.ParseFloat(resp.Time, 64)
	res := JudgeResult{
		StatusID:      resp.Status.ID,
		StatusText:    StatusText(resp.Status.ID),
		Stdout:        resp.Stdout,
		Stderr:        resp.Stderr,
		CompileOutput: resp.CompileOutput,
		Message:       resp.Message,
		Time:          elapsed,
		Memory:        resp.Memory,
	}
	res.Passed = res.StatusID == StatusAccepted && OutputMatches(res.Stdout, expected)
	return res
}
