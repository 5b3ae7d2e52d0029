package eval

import (
	"sort"

	"umd-lhcb/tupling/pkg/boolean/value"
)

// Func is a registered function. It receives fully evaluated arguments.
type Func func(args ...value.Value) (value.Value, error)

// Functions maps function names to implementations.
type Functions map[string]Func

// Symbols maps constant names to values.
type Symbols map[string]value.Value

// Merge returns a copy of s with the entries of other added, replacing
// entries of the same name.
func (s Symbols) Merge(other Symbols) Symbols {
	out := make(Symbols, len(s)+len(other))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Names returns the sorted symbol names.
func (s Symbols) Names() []string {
	return sortedKeys(s)
}

// Merge returns a copy of f with the entries of other added, replacing
// entries of the same name.
func (f Functions) Merge(other Functions) Functions {
	out := make(Functions, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Names returns the sorted function names.
func (f Functions) Names() []string {
	return sortedKeys(f)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
