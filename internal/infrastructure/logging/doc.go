// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("coordinator started", zap.String("store", "file"))
//	logger.Error("analysis failed", zap.Error(err))
package logging
