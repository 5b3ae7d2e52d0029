// Package cutflow runs an ordered list of cut rules and accounts for how
// many events survive each step.
//
// Each Rule names a condition in the expression language. By default a rule
// is measured against the rule directly before it ("r:-1") and its mask is
// intersected with that rule's surviving events, so every step narrows the
// selection. A rule may instead point at any earlier rule, by absolute index
// or relative offset, and an explicit rule is not intersected with the rule
// it points at. Together these express branching cutflows: two explicit
// trigger rules that both point at the same baseline report the same input.
//
// The Engine evaluates every rule exactly once, in order, and returns a
// Result keyed by each rule's key (or its condition when no key is set):
//
//	ev := eval.New(src, "TupleB0/DecayTree")
//	engine, err := cutflow.NewEngine(nil, ev, []cutflow.Rule{
//	    {Cond: "muplus_L0Global_TIS", Key: "L0"},
//	    {Cond: "Kplus_Hlt1Phys_Dec", Key: "Hlt1"},
//	}, 2333, logger)
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Run(ctx)
//
// Counting is pluggable through a CountRegulator; UniqueEvents counts
// distinct run/event pairs instead of entries.
package cutflow
