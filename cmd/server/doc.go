// Package main is the entry point for the gradebox MCP server.
//
// The gradebox server runs graded coding practice sessions. Learners request
// a bounded number of hints per question, submit solutions that are graded
// against test suites on a remote Judge0 instance, and run code with custom
// input. Questions without tests are judged by an LLM evaluator. The server
// supports both stdio and HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main
