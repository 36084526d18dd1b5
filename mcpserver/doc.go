// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the practice session operations as MCP
// tools using the mark3labs/mcp-go library: start_session, get_session,
// request_hint, submit_solution, run_code and judge_status.
//
// Service failures are returned as tool results with IsError set, so the
// calling agent sees why a request was refused. An exhausted hint budget
// is reported as "no hints remaining". Missing required parameters are
// protocol errors.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, practiceService, judgeClient, questionBank)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
