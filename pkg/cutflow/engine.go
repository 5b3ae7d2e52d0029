package cutflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
	"umd-lhcb/tupling/pkg/boolean/eval"
	"umd-lhcb/tupling/pkg/boolean/value"
)

const tracerName = "umd-lhcb/tupling/pkg/cutflow"

// Observer is notified of every evaluated rule and every finished run.
type Observer interface {
	ObserveRule(tree, key string, input, output int64, duration time.Duration)
	ObserveRun(tree string, rules int, duration time.Duration, err error)
}

// Recorder persists completed runs.
type Recorder interface {
	RecordRun(ctx context.Context, result *Result) error
}

// Engine runs a fixed list of rules through an evaluator.
type Engine struct {
	config  *EngineConfig
	ev      *eval.Evaluator
	rules   []Rule
	initNum int64
	logger  *slog.Logger
	tracer  trace.Tracer
}

// refEntry is what later rules can chain from.
type refEntry struct {
	input  int64
	output int64
	raw    []bool // Mask of the rule's own condition
	mask   []bool // Mask after chaining, used by back-references
}

// NewEngine creates an engine. Rule conditions are normalized once here:
// line breaks become spaces, surrounding whitespace is trimmed and an empty
// condition becomes "true".
func NewEngine(config *EngineConfig, ev *eval.Evaluator, rules []Rule, initNum int64, logger *slog.Logger) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("%w: evaluator is required", ErrInvalidConfig)
	}
	if len(rules) > config.MaxRules {
		return nil, fmt.Errorf("%w: %d rules exceed the maximum of %d", ErrInvalidConfig, len(rules), config.MaxRules)
	}
	if initNum < 0 {
		return nil, fmt.Errorf("%w: initial count must not be negative", ErrInvalidConfig)
	}

	if logger == nil {
		logger = slog.Default()
	}

	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		normalized[i] = r.Normalize()
	}

	return &Engine{
		config:  config,
		ev:      ev,
		rules:   normalized,
		initNum: initNum,
		logger:  logger.With("component", "cutflow.engine", "tree", ev.Tree()),
		tracer:  tracer,
	}, nil
}

// Rules returns the normalized rules.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Run evaluates every rule once, in order. The first failing rule aborts the
// run with a *RuleError, or a *ReferenceError in strict reference mode.
func (e *Engine) Run(ctx context.Context) (_ *Result, err error) {
	result := &Result{
		RunID:     uuid.New().String(),
		Tree:      e.ev.Tree(),
		InitNum:   e.initNum,
		Steps:     make(map[string]Step, len(e.rules)),
		StartedAt: time.Now(),
	}

	ctx, span := e.tracer.Start(ctx, "cutflow.run", trace.WithAttributes(
		attribute.String("tupling.run_id", result.RunID),
		attribute.String("tupling.tree", result.Tree),
		attribute.Int("tupling.rules", len(e.rules)),
		attribute.Int64("tupling.init_num", e.initNum),
	))
	defer func() {
		result.FinishedAt = time.Now()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if e.config.Observer != nil {
			e.config.Observer.ObserveRun(result.Tree, len(e.rules), result.Duration(), err)
		}
	}()

	ref := make(map[string]refEntry, len(e.rules))
	for idx, rule := range e.rules {
		outcome, entry, err := e.runRule(ctx, idx, rule, ref)
		if err != nil {
			e.logger.Error("cutflow rule failed", "run_id", result.RunID, "index", idx, "cond", rule.Cond, "error", err)
			return nil, err
		}

		key := rule.ResultKey()
		if _, seen := result.Steps[key]; !seen {
			result.Order = append(result.Order, key)
		}
		result.Steps[key] = Step{Input: outcome.Input, Output: outcome.Output, Name: rule.Name}
		result.Rules = append(result.Rules, outcome)
		ref[rule.Cond] = entry
	}
	result.FinishedAt = time.Now()

	e.logger.Info("cutflow completed",
		"run_id", result.RunID,
		"rules", len(e.rules),
		"init_num", e.initNum,
		"duration_ms", result.Duration().Milliseconds(),
	)

	if e.config.Recorder != nil {
		if rerr := e.config.Recorder.RecordRun(ctx, result); rerr != nil {
			e.logger.Error("failed to record cutflow run", "run_id", result.RunID, "error", rerr)
		}
	}

	return result, nil
}

func (e *Engine) runRule(ctx context.Context, idx int, rule Rule, ref map[string]refEntry) (RuleOutcome, refEntry, error) {
	start := time.Now()
	outcome := RuleOutcome{
		Index:     idx,
		Key:       rule.ResultKey(),
		Cond:      rule.Cond,
		Name:      rule.Name,
		Explicit:  rule.Explicit,
		Reference: -1,
	}

	ctx, span := e.tracer.Start(ctx, "cutflow.rule", trace.WithAttributes(
		attribute.Int("tupling.rule.index", idx),
		attribute.String("tupling.rule.key", outcome.Key),
		attribute.Bool("tupling.rule.explicit", rule.Explicit),
	))
	defer span.End()

	fail := func(err error) (RuleOutcome, refEntry, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RuleOutcome{}, refEntry{}, err
	}

	// Resolve the back-reference.
	prevOutput := e.initNum
	var prevMask []bool // nil means all events
	r := rule.Reference()
	target := r.Resolve(idx)
	prev, found := refEntry{}, false
	if target >= 0 && target < idx {
		prev, found = ref[e.rules[target].Cond]
	}
	if found {
		prevOutput, prevMask = prev.output, prev.mask
		outcome.Reference = target
	} else if target != -1 || r != Previous {
		if e.config.ReferenceMode == ReferenceStrict {
			return fail(&ReferenceError{Index: idx, Ref: r, Resolved: target})
		}
		e.logger.Warn("compare_to does not point at a processed rule, using initial count",
			"index", idx, "compare_to", r.String(), "resolved", target, "init_num", e.initNum)
	}

	// Evaluate the condition.
	v, err := e.ev.Eval(ctx, rule.Cond)
	if err != nil {
		return fail(&RuleError{Index: idx, Cond: rule.Cond, Cause: err})
	}
	raw, err := e.toMask(ctx, v, prevMask)
	if err != nil {
		return fail(&RuleError{Index: idx, Cond: rule.Cond, Cause: err})
	}

	mask := raw
	if !rule.Explicit && prevMask != nil {
		if len(prevMask) != len(raw) {
			return fail(&RuleError{Index: idx, Cond: rule.Cond,
				Cause: exprErrors.NewShapeError("cutflow chaining", len(prevMask), len(raw))})
		}
		mask = make([]bool, len(raw))
		for i := range raw {
			mask[i] = raw[i] && prevMask[i]
		}
	}

	output, err := e.config.Regulator.Count(ctx, e.ev.Source(), e.ev.Tree(), mask)
	if err != nil {
		return fail(&RuleError{Index: idx, Cond: rule.Cond, Cause: fmt.Errorf("counting: %w", err)})
	}

	outcome.Input = prevOutput
	outcome.Output = output
	outcome.Raw = countTrue(raw)
	outcome.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int64("tupling.rule.input", prevOutput),
		attribute.Int64("tupling.rule.output", output),
	)

	e.logger.Debug("cutflow rule evaluated",
		"index", idx,
		"key", outcome.Key,
		"reference", outcome.Reference,
		"explicit", rule.Explicit,
		"input", prevOutput,
		"output", output,
	)

	if e.config.Observer != nil {
		e.config.Observer.ObserveRule(e.ev.Tree(), outcome.Key, prevOutput, output, outcome.Duration)
	}

	return outcome, refEntry{input: prevOutput, output: output, raw: raw, mask: mask}, nil
}

// toMask converts an evaluated condition to a boolean mask. Non-zero numbers
// are true. A scalar is broadcast to the length of prevMask, or to the
// number of entries in the tree when there is no previous mask.
func (e *Engine) toMask(ctx context.Context, v value.Value, prevMask []bool) ([]bool, error) {
	if !v.IsScalar() {
		return v.Bools(), nil
	}

	n := len(prevMask)
	if prevMask == nil {
		entries, err := e.ev.Entries(ctx)
		if err != nil {
			return nil, fmt.Errorf("broadcasting scalar condition: %w", err)
		}
		n = entries
	}
	return value.Fill(value.Bool(v.Bools()[0]), n).Bools(), nil
}
