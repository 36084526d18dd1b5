package judge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// fakeJob is one job held by fakeJudge
type fakeJob struct {
	index int
	req   submissionRequest
	polls int
}

// fakeJudge is an in-process stand-in for the remote judge. Every knob is
// read under mu so handlers can run concurrently with parallel polling.
type fakeJudge struct {
	mu sync.Mutex

	jobs        map[string]*fakeJob
	submitCalls int
	batchCalls  int
	pollCalls   int

	submitFailures  int // first N single submits answer 503
	submitStatus    int // when set, every single submit answers with it
	batchStatus     int // when set, the batch endpoint answers with it
	batchFailures   int // first N batch submits answer 503
	failPolls       int // first N polls of every job answer 500
	failingIndex    int // polls of the job with this index always answer 500; -1 disables
	processingPolls func(index, total int) int
	respond         func(job *fakeJob) submissionResponse

	batchSize int
}

func newFakeJudge() *fakeJudge {
	return &fakeJudge{
		jobs:         make(map[string]*fakeJob),
		failingIndex: -1,
	}
}

// echoResponse runs an "echo stdin" program
func echoResponse(job *fakeJob) submissionResponse {
	status := StatusAccepted
	if job.req.ExpectedOutput != nil && strings.TrimSpace(job.req.Stdin) != *job.req.ExpectedOutput {
		status = StatusWrongAnswer
	}
	return submissionResponse{
		Stdout: job.req.Stdin + "\n",
		Time:   "0.010",
		Memory: 1024,
		Status: submissionStatus{ID: status},
	}
}

func (f *fakeJudge) newJob(req submissionRequest, index int) string {
	token := fmt.Sprintf("tok-%d", len(f.jobs))
	f.jobs[token] = &fakeJob{index: index, req: req}
	return token
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeJudge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/languages":
		writeJSON(w, []RemoteLanguage{{ID: 71, Name: "Python (3.8.1)"}})

	case r.Method == http.MethodPost && r.URL.Path == "/submissions/batch":
		f.batchCalls++
		if f.batchStatus != 0 {
			http.Error(w, "batch disabled", f.batchStatus)
			return
		}
		if f.batchCalls <= f.batchFailures {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		var batch batchRequest
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.batchSize = len(batch.Submissions)
		tokens := make([]tokenResponse, len(batch.Submissions))
		for i, sub := range batch.Submissions {
			tokens[i] = tokenResponse{Token: f.newJob(sub, i)}
		}
		writeJSON(w, tokens)

	case r.Method == http.MethodPost && r.URL.Path == "/submissions":
		f.submitCalls++
		if f.submitStatus != 0 {
			http.Error(w, "refused", f.submitStatus)
			return
		}
		if f.submitCalls <= f.submitFailures {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		var req submissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, tokenResponse{Token: f.newJob(req, f.submitCalls-1-f.submitFailures)})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/submissions/"):
		f.pollCalls++
		job, ok := f.jobs[strings.TrimPrefix(r.URL.Path, "/submissions/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		job.polls++
		if job.index == f.failingIndex || job.polls <= f.failPolls {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		processing := 0
		if f.processingPolls != nil {
			processing = f.processingPolls(job.index, len(f.jobs))
		}
		if job.polls <= f.failPolls+processing {
			writeJSON(w, submissionResponse{Status: submissionStatus{ID: StatusProcessing}})
			return
		}
		respond := f.respond
		if respond == nil {
			respond = echoResponse
		}
		writeJSON(w, respond(job))

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeJudge) counts() (submit, batch, poll int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls, f.batchCalls, f.pollCalls
}

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:          baseURL,
		RequestTimeout:   5 * time.Second,
		PollInterval:     time.Millisecond,
		MaxPollAttempts:  5,
		SubmitAttempts:   2,
		CPUTimeLimitSec:  5,
		WallTimeLimitSec: 10,
		MemoryLimitKB:    128000,
		MaxParallelPolls: 4,
	}
}

func newTestClient(t *testing.T, fake *fakeJudge, mutate ...func(*Config)) *Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL)
	for _, m := range mutate {
		m(cfg)
	}
	return NewClient(zaptest.NewLogger(t), cfg)
}
