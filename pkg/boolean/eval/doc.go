// Package eval evaluates parsed cut expressions against columnar event data.
//
// An Evaluator is an evaluation session bound to one tree of one data source.
// It owns a variable cache seeded with the registered constants; every branch
// fetched from the source is added to the cache and reused by all later
// evaluations on the same Evaluator.
//
// Evaluation runs in two passes. The first pass collects every variable of
// the tree that is not cached yet and fetches them with a single bulk request.
// The second pass folds the tree bottom-up. Both operands of & and | are
// always evaluated; all operators apply elementwise.
//
// Example:
//
//	ev := eval.New(src, "TupleB0/DecayTree")
//	mask, err := ev.Eval(ctx, "Y_PT > 1000 & muplus_isMuon")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(mask.Count())
//
// An Evaluator is not safe for concurrent use.
package eval
