package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the command spans. The evaluator and the cutflow
// engine set the same keys on their own spans.
const (
	AttrRunID       = "tupling.run_id"
	AttrTree        = "tupling.tree"
	AttrRulesFile   = "tupling.rules_file"
	AttrRules       = "tupling.rules"
	AttrInitNum     = "tupling.init_num"
	AttrExpression  = "tupling.expression"
	AttrDataSources = "tupling.data_sources"
	AttrCommand     = "tupling.command"
)

// SetRunAttributes sets the identifying attributes of a cutflow run.
func SetRunAttributes(span trace.Span, runID, tree string, rules int) {
	attrs := []attribute.KeyValue{attribute.Int(AttrRules, rules)}
	if runID != "" {
		attrs = append(attrs, attribute.String(AttrRunID, runID))
	}
	if tree != "" {
		attrs = append(attrs, attribute.String(AttrTree, tree))
	}
	span.SetAttributes(attrs...)
}

// AttributeBuilder collects span attributes for a command invocation.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates an empty builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{}
}

// WithCommand records the subcommand name.
func (ab *AttributeBuilder) WithCommand(name string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrCommand, name))
	return ab
}

// WithTree records the tree name.
func (ab *AttributeBuilder) WithTree(tree string) *AttributeBuilder {
	if tree != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrTree, tree))
	}
	return ab
}

// WithRulesFile records the rules file path.
func (ab *AttributeBuilder) WithRulesFile(path string) *AttributeBuilder {
	if path != "" {
		ab.attrs = append(ab.attrs, attribute.String(AttrRulesFile, path))
	}
	return ab
}

// WithDataSources records the data file paths.
func (ab *AttributeBuilder) WithDataSources(paths []string) *AttributeBuilder {
	if len(paths) > 0 {
		ab.attrs = append(ab.attrs, attribute.StringSlice(AttrDataSources, paths))
	}
	return ab
}

// WithExpression records an expression text.
func (ab *AttributeBuilder) WithExpression(expr string) *AttributeBuilder {
	ab.attrs = append(ab.attrs, attribute.String(AttrExpression, expr))
	return ab
}

// Build returns the attributes as a span start option.
func (ab *AttributeBuilder) Build() trace.SpanStartOption {
	return trace.WithAttributes(ab.attrs...)
}

// Attributes returns the collected attributes.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}
