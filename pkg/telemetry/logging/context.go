package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for cutflow run IDs.
	RunIDKey contextKey = "run_id"

	// TreeKey is the context key for the ntuple tree being processed.
	TreeKey contextKey = "tree"

	// RulesFileKey is the context key for the rules file path.
	RulesFileKey contextKey = "rules_file"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithTree adds a tree name to the context.
func WithTree(ctx context.Context, tree string) context.Context {
	return context.WithValue(ctx, TreeKey, tree)
}

// GetTree retrieves the tree name from the context.
func GetTree(ctx context.Context) string {
	if tree, ok := ctx.Value(TreeKey).(string); ok {
		return tree
	}
	return ""
}

// WithRulesFile adds a rules file path to the context.
func WithRulesFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, RulesFileKey, path)
}

// GetRulesFile retrieves the rules file path from the context.
func GetRulesFile(ctx context.Context) string {
	if path, ok := ctx.Value(RulesFileKey).(string); ok {
		return path
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, "run_id", runID)
	}
	if tree := GetTree(ctx); tree != "" {
		fields = append(fields, "tree", tree)
	}
	if path := GetRulesFile(ctx); path != "" {
		fields = append(fields, "rules_file", path)
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, "trace_id", traceID)
	}

	return fields
}
