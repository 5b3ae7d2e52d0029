// Package telemetry groups the observability packages of the tupling tools.
//
// # Components
//
//   - logging: structured logging on log/slog with context-carried run fields
//   - metrics: Prometheus metrics for evaluation and cutflow runs, exported
//     to a node exporter textfile or served over HTTP in watch mode
//   - tracing: OpenTelemetry tracing exported over OTLP gRPC
//
// Library packages (boolean, ntuple, cutflow) depend only on *slog.Logger,
// their own Observer interfaces and the global OpenTelemetry provider. The
// command wires the concrete implementations from this tree.
package telemetry
