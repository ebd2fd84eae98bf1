// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance supporting console encoding for
// readable CLI output and json encoding for machine consumption.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: console or json
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("Scan started")
package logger
