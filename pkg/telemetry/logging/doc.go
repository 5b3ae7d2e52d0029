// Package logging provides structured logging on top of log/slog.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text, and console output formats
//   - Configurable log levels (debug, info, warn, error)
//   - Run fields (run ID, tree, rules file, trace ID) carried on the context
//
// Library packages accept a plain *slog.Logger; the command wires them with
// Logger.Slog().
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "cutflow finished", "rules", 4)
//	// {"level":"INFO","msg":"cutflow finished","run_id":"...","rules":4}
package logging
