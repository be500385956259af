// Package logger provides structured logging utilities built on Go's standard
// slog package, plus a set of pre-built attributes for session lifecycle
// logging scenarios.
//
// # Basic Usage
//
// Create loggers using the factory function with various configuration options:
//
//	import "github.com/dmitrymomot/sessionguard/core/logger"
//
//	// Create a development logger
//	log := logger.New(
//		logger.WithDevelopment("myapp"),
//	)
//
//	// Create a production logger
//	log := logger.New(
//		logger.WithProduction("myapp"),
//	)
//
//	// Use the logger
//	log.Info("monitoring started",
//		logger.Component("lifecycle"),
//		logger.AccountID(accountID),
//	)
//
// # Attribute Helpers
//
// Helpers are nil-safe: logger.Error(nil) and logger.AccountID("") produce
// empty attributes that slog drops, so call sites need no conditionals:
//
//	log.Error("activity write failed",
//		logger.Error(err),
//		logger.Component("lifecycle"),
//		logger.Idle(idle),
//	)
package logger
