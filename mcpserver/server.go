package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/gradebox/config"
	"github.com/isdmx/gradebox/judge"
	"github.com/isdmx/gradebox/practice"
	"github.com/isdmx/gradebox/questionbank"
)

// Practice is the set of session operations exposed as tools
type Practice interface {
	InitializeSession(ctx context.Context, learnerID, courseID string, specs []practice.QuestionSpec) (*practice.PracticeSession, error)
	GetSession(ctx context.Context, sessionID string) (*practice.PracticeSession, error)
	RequestHint(ctx context.Context, sessionID, questionID string) (practice.HintResponse, error)
	SubmitSolution(ctx context.Context, sessionID, questionID, code, language string) (practice.Evaluation, error)
	RunCode(ctx context.Context, sessionID, questionID, code, language, stdin string) (judge.JudgeResult, error)
}

// JudgeProbe reports on the remote judge
type JudgeProbe interface {
	CheckAvailability(ctx context.Context) bool
	Languages(ctx context.Context) ([]judge.RemoteLanguage, error)
}

// Catalog supplies the questions of a course
type Catalog interface {
	Questions(courseID string) ([]practice.QuestionSpec, error)
}

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	practice  Practice
	judge     JudgeProbe
	catalog   Catalog
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, svc Practice, probe JudgeProbe, catalog Catalog) (*MCPServer, error) {
	s := &MCPServer{
		config:   cfg,
		logger:   logger,
		practice: svc,
		judge:    probe,
		catalog:  catalog,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("judge.base_url", cfg.Judge.BaseURL),
		zap.Int("judge.poll_interval_ms", cfg.Judge.PollIntervalMS),
		zap.Int("judge.max_poll_attempts", cfg.Judge.MaxPollAttempts),
		zap.Int("judge.submit_attempts", cfg.Judge.SubmitAttempts),
		zap.Bool("judge.batch_enabled", cfg.Judge.BatchEnabled),
		zap.Bool("judge.parallel_polling", cfg.Judge.ParallelPolling),
		zap.Int("practice.max_hints", cfg.Practice.MaxHints),
		zap.Bool("evaluator.enabled", cfg.Evaluator.Enabled),
		zap.String("storage.backend", cfg.Storage.Backend),
	)

	s.mcpServer = server.NewMCPServer("gradebox", "Graded coding practice sessions")
	s.registerTools()

	return s, nil
}

func stringProp(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

// registerTools registers every practice tool
func (s *MCPServer) registerTools() {
	session := stringProp("Practice session id")
	question := stringProp("Question id within the session")

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "start_session",
		Description: "Start a practice session for a learner from a course in the question bank, or from an explicit question list",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"learner_id": stringProp("Learner id"),
				"course_id":  stringProp("Course id"),
				"questions":  stringProp("JSON array of {stem, language, tests} overriding the question bank (optional)"),
			},
			Required: []string{"learner_id", "course_id"},
		},
	}, s.handleStartSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Show a practice session with hints and submission history",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": session},
			Required:   []string{"session_id"},
		},
	}, s.handleGetSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "request_hint",
		Description: "Request the next hint for a question; each question has a fixed hint budget",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": session, "question_id": question},
			Required:   []string{"session_id", "question_id"},
		},
	}, s.handleRequestHint)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_solution",
		Description: "Grade a solution and record it in the question's history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id":  session,
				"question_id": question,
				"code":        stringProp("Source code"),
				"language":    stringProp("Language; defaults to the question's language"),
			},
			Required: []string{"session_id", "question_id", "code"},
		},
	}, s.handleSubmitSolution)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "run_code",
		Description: "Run code once with custom stdin without recording a submission",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id":  session,
				"question_id": question,
				"code":        stringProp("Source code"),
				"language":    stringProp("Language; defaults to the question's language"),
				"stdin":       stringProp("Standard input (optional)"),
			},
			Required: []string{"session_id", "question_id", "code"},
		},
	}, s.handleRunCode)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "judge_status",
		Description: "Check whether the remote judge is reachable",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, s.handleJudgeStatus)
}

func (s *MCPServer) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	learnerID, err := request.RequireString("learner_id")
	if err != nil {
		return nil, fmt.Errorf("learner_id parameter is required: %w", err)
	}
	courseID, err := request.RequireString("course_id")
	if err != nil {
		return nil, fmt.Errorf("course_id parameter is required: %w", err)
	}

	var specs []practice.QuestionSpec
	if raw := request.GetString("questions", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &specs); err != nil {
			return errorResult(fmt.Sprintf("invalid questions: %v", err)), nil
		}
	} else {
		specs, err = s.catalog.Questions(courseID)
		if err != nil {
			return s.toolError("start_session", err), nil
		}
	}

	session, err := s.practice.InitializeSession(ctx, learnerID, courseID, specs)
	if err != nil {
		return s.toolError("start_session", err), nil
	}
	return jsonResult(publicSession(session))
}

func (s *MCPServer) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return nil, fmt.Errorf("session_id parameter is required: %w", err)
	}

	session, err := s.practice.GetSession(ctx, sessionID)
	if err != nil {
		return s.toolError("get_session", err), nil
	}
	return jsonResult(publicSession(session))
}

func (s *MCPServer) handleRequestHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, questionID, err := sessionAndQuestion(request)
	if err != nil {
		return nil, err
	}

	resp, err := s.practice.RequestHint(ctx, sessionID, questionID)
	if err != nil {
		return s.toolError("request_hint", err), nil
	}
	return jsonResult(resp)
}

func (s *MCPServer) handleSubmitSolution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, questionID, err := sessionAndQuestion(request)
	if err != nil {
		return nil, err
	}
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}
	language := request.GetString("language", "")

	s.logger.Info("solution submitted",
		zap.String("session_id", sessionID),
		zap.String("question_id", questionID),
		zap.String("language", language))

	eval, err := s.practice.SubmitSolution(ctx, sessionID, questionID, code, language)
	if err != nil {
		return s.toolError("submit_solution", err), nil
	}
	return jsonResult(eval)
}

func (s *MCPServer) handleRunCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, questionID, err := sessionAndQuestion(request)
	if err != nil {
		return nil, err
	}
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	res, err := s.practice.RunCode(ctx, sessionID, questionID, code, request.GetString("language", ""), request.GetString("stdin", ""))
	if err != nil {
		return s.toolError("run_code", err), nil
	}
	return jsonResult(res)
}

func (s *MCPServer) handleJudgeStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := struct {
		Available bool `json:"available"`
		Languages int  `json:"languages"`
	}{Available: s.judge.CheckAvailability(ctx)}

	if status.Available {
		langs, err := s.judge.Languages(ctx)
		if err != nil {
			s.logger.Warn("failed to list judge languages", zap.Error(err))
		}
		status.Languages = len(langs)
	}
	return jsonResult(status)
}

func sessionAndQuestion(request mcp.CallToolRequest) (sessionID, questionID string, err error) {
	sessionID, err = request.RequireString("session_id")
	if err != nil {
		return "", "", fmt.Errorf("session_id parameter is required: %w", err)
	}
	questionID, err = request.RequireString("question_id")
	if err != nil {
		return "", "", fmt.Errorf("question_id parameter is required: %w", err)
	}
	return sessionID, questionID, nil
}

// toolError maps a service failure onto an error result the caller can show
func (s *MCPServer) toolError(tool string, err error) *mcp.CallToolResult {
	var vErr *practice.ValidationError
	switch {
	case errors.Is(err, practice.ErrHintLimitReached):
		return errorResult(practice.ErrHintLimitReached.Error())
	case errors.As(err, &vErr):
		return errorResult("invalid request: " + vErr.Error())
	case errors.Is(err, practice.ErrSessionNotFound),
		errors.Is(err, practice.ErrQuestionNotFound),
		errors.Is(err, questionbank.ErrCourseNotFound):
		return errorResult(err.Error())
	case errors.Is(err, judge.ErrUnsupportedLanguage):
		return errorResult(err.Error())
	case errors.Is(err, practice.ErrEvaluatorUnavailable):
		return errorResult(err.Error())
	default:
		s.logger.Error("tool failed", zap.String("tool", tool), zap.Error(err))
		return errorResult(fmt.Sprintf("%s failed: %v", tool, err))
	}
}

// publicSession hides the input and expected output of hidden tests
func publicSession(session *practice.PracticeSession) *practice.PracticeSession {
	out := session.Clone()
	for i := range out.Questions {
		for j := range out.Questions[i].Tests {
			if out.Questions[i].Tests[j].Hidden {
				out.Questions[i].Tests[j].Input = ""
				out.Questions[i].Tests[j].ExpectedOutput = nil
			}
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
	}, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
		IsError: true,
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
