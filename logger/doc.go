// Package logger provides structured logging capabilities.
//
// The logger package sets up and configures the application's logging
// system using zap. Every component takes a child logger named after it,
// so judge, grading and practice output can be filtered apart.
//
// Usage:
//
//	logger, err := logger.New("production", "info")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	judgeLog := logger.Component(logger, "judge")
//	judgeLog.Info("submission accepted", zap.String("token", token))
package logger
