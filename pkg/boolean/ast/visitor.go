package ast

// Inspect traverses the tree in depth-first order. It calls f(n) for each
// node; if f returns false, the children of n are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	switch n := n.(type) {
	case *UnaryOp:
		Inspect(n.Operand, f)
	case *BinaryOp:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *FunctionCall:
		for _, arg := range n.Args {
			Inspect(arg, f)
		}
	}
}

// Variables returns the unique variable names referenced by the tree, in order
// of first appearance. Function names are not variables.
func Variables(n Node) []string {
	seen := make(map[string]struct{})
	var names []string

	Inspect(n, func(n Node) bool {
		if v, ok := n.(*Variable); ok {
			if _, dup := seen[v.Name]; !dup {
				seen[v.Name] = struct{}{}
				names = append(names, v.Name)
			}
		}
		return true
	})

	return names
}

// Functions returns the unique function names called by the tree, in order of
// first appearance.
func Functions(n Node) []string {
	seen := make(map[string]struct{})
	var names []string

	Inspect(n, func(n Node) bool {
		if c, ok := n.(*FunctionCall); ok {
			if _, dup := seen[c.Name]; !dup {
				seen[c.Name] = struct{}{}
				names = append(names, c.Name)
			}
		}
		return true
	})

	return names
}

// Depth returns the height of the tree. A single leaf has depth 1.
func Depth(n Node) int {
	switch n := n.(type) {
	case *UnaryOp:
		return 1 + Depth(n.Operand)
	case *BinaryOp:
		return 1 + max(Depth(n.Left), Depth(n.Right))
	case *FunctionCall:
		d := 0
		for _, arg := range n.Args {
			d = max(d, Depth(arg))
		}
		return 1 + d
	case nil:
		return 0
	default:
		return 1
	}
}
