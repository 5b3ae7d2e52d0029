// Package tracing configures OpenTelemetry tracing for the tupling commands.
//
// New installs a global tracer provider exporting over OTLP gRPC. The
// evaluator ("boolean.eval", "ntuple.fetch" spans) and the cutflow engine
// ("cutflow.run", "cutflow.rule" spans) use the global provider, so they
// are traced as soon as a Tracer is created.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(version))
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx = tracing.ExtractFromEnv(ctx)
//	ctx, span := tracer.Start(ctx, "tupling cutflow")
//	defer span.End()
//
// A run started from a traced CI job continues the job's trace when the job
// exports TRACEPARENT.
package tracing
