// Tupling evaluates cut expressions and cutflows over columnar ntuple data.
//
// It provides:
//   - Vectorized evaluation of boolean cut expressions over ntuple branches
//   - Cutflow tables from YAML rules files, with chained and explicit cuts
//   - Recording, listing and pruning of past cutflow runs
//   - Re-running a cutflow whenever its rules or data change
//
// Usage:
//
//	# Evaluate an expression against a data file
//	tupling eval --data run1.yaml --tree TupleB0/DecayTree "Y_PT > 5 * GeV"
//
//	# Print the syntax tree of an expression
//	tupling eval --ast "-1 + 2 * abs(x)"
//
//	# Produce a cutflow table in markdown
//	tupling cutflow --rules rules.yaml --data run1.yaml --format markdown
//
//	# Check a rules file against the branches of a data file
//	tupling lint --rules rules.yaml --data run1.yaml
//
//	# List recorded runs
//	tupling runs list --tree TupleB0/DecayTree
package main

func main() {
	Execute()
}
