// Package ntuple provides columnar event data to the expression evaluator.
//
// A Source serves named branches of a tree as aligned arrays, one element per
// event. Implementations are provided for in-memory data (optionally loaded
// from YAML fixtures), SQLite tables with one column per branch, and the
// transparent concatenation of several sources that share the same branches.
//
//	src, err := ntuple.LoadYAML("testdata/sample.yaml")
//	if err != nil {
//	    return err
//	}
//	cols, err := src.Branches(ctx, "TupleB0/DecayTree", []string{"Y_PT", "Y_M"})
package ntuple
