package cutflow

import (
	"fmt"

	"go.opentelemetry.io/otel/trace"
)

// ReferenceMode determines how the engine handles a compare_to that does not
// point at an already processed rule.
type ReferenceMode string

const (
	// ReferencePermissive falls back to the initial count and an all-true
	// mask and logs a warning. This is the default.
	ReferencePermissive ReferenceMode = "permissive"

	// ReferenceStrict fails the run with a *ReferenceError.
	ReferenceStrict ReferenceMode = "strict"
)

// EngineConfig contains configuration for the cutflow engine.
type EngineConfig struct {
	// ReferenceMode determines how unresolvable references are handled.
	// Default: ReferencePermissive.
	ReferenceMode ReferenceMode

	// Regulator turns a rule's mask into its output count.
	// Default: SumRegulator (number of true entries).
	Regulator CountRegulator

	// Recorder, when set, receives every completed run.
	Recorder Recorder

	// Observer, when set, is notified of every rule and run.
	Observer Observer

	// Tracer creates spans for runs and rules.
	// Default: the global OpenTelemetry tracer.
	Tracer trace.Tracer

	// MaxRules bounds the number of rules in one cutflow.
	// Default: 1000.
	MaxRules int
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		ReferenceMode: ReferencePermissive,
		Regulator:     SumRegulator{},
		MaxRules:      1000,
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	switch c.ReferenceMode {
	case ReferencePermissive, ReferenceStrict:
		// Valid
	default:
		return fmt.Errorf("%w: invalid reference mode %q", ErrInvalidConfig, c.ReferenceMode)
	}

	if c.Regulator == nil {
		return fmt.Errorf("%w: count regulator is required", ErrInvalidConfig)
	}

	if c.MaxRules <= 0 {
		return fmt.Errorf("%w: max rules must be positive", ErrInvalidConfig)
	}

	return nil
}

// WithReferenceMode sets the reference mode.
func (c *EngineConfig) WithReferenceMode(mode ReferenceMode) *EngineConfig {
	c.ReferenceMode = mode
	return c
}

// WithRegulator sets the count regulator.
func (c *EngineConfig) WithRegulator(r CountRegulator) *EngineConfig {
	c.Regulator = r
	return c
}

// WithRecorder sets the run recorder.
func (c *EngineConfig) WithRecorder(r Recorder) *EngineConfig {
	c.Recorder = r
	return c
}

// WithObserver sets the observer.
func (c *EngineConfig) WithObserver(o Observer) *EngineConfig {
	c.Observer = o
	return c
}

// WithTracer sets the tracer.
func (c *EngineConfig) WithTracer(t trace.Tracer) *EngineConfig {
	c.Tracer = t
	return c
}
