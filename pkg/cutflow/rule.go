package cutflow

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCond is the condition of a rule that does not set one.
const DefaultCond = "true"

// Rule is one step of a cutflow.
type Rule struct {
	// Cond is the condition expression. Default: "true".
	Cond string `yaml:"cond" json:"cond"`

	// Name is an optional human-readable label.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Key is the result key. Default: Cond.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`

	// CompareTo points at the rule this one is measured against.
	// Default: the previous rule ("r:-1").
	CompareTo *Ref `yaml:"compare_to,omitempty" json:"compare_to,omitempty"`

	// Explicit rules are not intersected with the referenced rule's mask.
	Explicit bool `yaml:"explicit,omitempty" json:"explicit,omitempty"`
}

// ResultKey returns Key, or Cond when Key is empty.
func (r Rule) ResultKey() string {
	if r.Key != "" {
		return r.Key
	}
	return r.Cond
}

// Reference returns CompareTo, or the previous rule when unset.
func (r Rule) Reference() Ref {
	if r.CompareTo != nil {
		return *r.CompareTo
	}
	return Previous
}

// Normalize collapses embedded line breaks to spaces, trims the condition and
// applies the default condition.
func (r Rule) Normalize() Rule {
	cond := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(r.Cond)
	cond = strings.TrimSpace(cond)
	if cond == "" {
		cond = DefaultCond
	}
	r.Cond = cond
	return r
}

// Ref is a reference from a rule to an earlier rule, either by absolute
// index or relative to the referring rule.
type Ref struct {
	Relative bool
	Offset   int
}

// Previous refers to the rule directly before the referring one.
var Previous = Ref{Relative: true, Offset: -1}

// Index returns an absolute reference.
func Index(i int) *Ref {
	return &Ref{Offset: i}
}

// Relative returns a reference delta rules away from the referring rule.
func Relative(delta int) *Ref {
	return &Ref{Relative: true, Offset: delta}
}

// ParseRef parses "r:<signed int>" or a plain integer index.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "r:"); ok {
		delta, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return Ref{}, fmt.Errorf("%w: invalid relative reference %q", ErrInvalidReference, s)
		}
		return Ref{Relative: true, Offset: delta}, nil
	}

	idx, err := strconv.Atoi(s)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: reference %q is neither an index nor r:<delta>", ErrInvalidReference, s)
	}
	return Ref{Offset: idx}, nil
}

// Resolve returns the absolute index referenced from rule idx.
func (r Ref) Resolve(idx int) int {
	if r.Relative {
		return idx + r.Offset
	}
	return r.Offset
}

// String returns "r:<delta>" for relative references and the index otherwise.
func (r Ref) String() string {
	if r.Relative {
		return fmt.Sprintf("r:%d", r.Offset)
	}
	return strconv.Itoa(r.Offset)
}

// UnmarshalYAML accepts an integer index or a string reference.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: compare_to must be an index or r:<delta>", node.Line)
	}
	if node.Tag == "!!int" {
		var idx int
		if err := node.Decode(&idx); err != nil {
			return err
		}
		*r = Ref{Offset: idx}
		return nil
	}

	ref, err := ParseRef(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = ref
	return nil
}

// MarshalYAML writes relative references as strings and indexes as ints.
func (r Ref) MarshalYAML() (any, error) {
	if r.Relative {
		return r.String(), nil
	}
	return r.Offset, nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(text []byte) error {
	ref, err := ParseRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
