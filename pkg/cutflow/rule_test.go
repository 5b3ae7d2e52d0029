package cutflow

import (
	"encoding/json"
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		input   string
		want    Ref
		wantErr bool
	}{
		{"r:-1", Ref{Relative: true, Offset: -1}, false},
		{"r:-3", Ref{Relative: true, Offset: -3}, false},
		{"r: 2", Ref{Relative: true, Offset: 2}, false},
		{"0", Ref{Offset: 0}, false},
		{" 4 ", Ref{Offset: 4}, false},
		{"r:", Ref{}, true},
		{"r:x", Ref{}, true},
		{"prev", Ref{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRef(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReference) {
					t.Errorf("ParseRef(%q) error = %v, want ErrInvalidReference", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRef_Resolve(t *testing.T) {
	tests := []struct {
		ref  Ref
		idx  int
		want int
	}{
		{Previous, 0, -1},
		{Previous, 3, 2},
		{*Relative(-3), 4, 1},
		{*Index(1), 4, 1},
		{*Index(7), 2, 7},
	}

	for _, tt := range tests {
		t.Run(tt.ref.String(), func(t *testing.T) {
			if got := tt.ref.Resolve(tt.idx); got != tt.want {
				t.Errorf("Resolve(%d) = %d, want %d", tt.idx, got, tt.want)
			}
		})
	}
}

func TestRule_Normalize(t *testing.T) {
	tests := []struct {
		name string
		cond string
		want string
	}{
		{"empty", "", "true"},
		{"blank", " \n\t", "true"},
		{"unix newline", "a &\nb", "a & b"},
		{"windows newline", "a &\r\nb", "a & b"},
		{"old mac newline", "a\r& b", "a & b"},
		{"trimmed", "  Y_M > 5000  ", "Y_M > 5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Rule{Cond: tt.cond}).Normalize().Cond; got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.cond, got, tt.want)
			}
		})
	}
}

func TestRule_Defaults(t *testing.T) {
	r := Rule{Cond: "L0"}
	if r.ResultKey() != "L0" {
		t.Errorf("ResultKey() = %q, want L0", r.ResultKey())
	}
	if r.Reference() != Previous {
		t.Errorf("Reference() = %v, want r:-1", r.Reference())
	}

	r.Key = "trigger"
	r.CompareTo = Index(0)
	if r.ResultKey() != "trigger" || r.Reference() != *Index(0) {
		t.Errorf("ResultKey() = %q, Reference() = %v", r.ResultKey(), r.Reference())
	}
}

func TestRef_YAML(t *testing.T) {
	var rules []Rule
	data := []byte(`
- cond: a
  compare_to: 2
- cond: b
  compare_to: r:-2
- cond: c
  compare_to: "3"
`)
	if err := yaml.Unmarshal(data, &rules); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := []Ref{{Offset: 2}, {Relative: true, Offset: -2}, {Offset: 3}}
	for i, w := range want {
		if rules[i].CompareTo == nil || *rules[i].CompareTo != w {
			t.Errorf("rule %d compare_to = %v, want %v", i, rules[i].CompareTo, w)
		}
	}

	out, err := yaml.Marshal(rules[:2])
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var node []map[string]any
	if err := yaml.Unmarshal(out, &node); err != nil {
		t.Fatalf("Unmarshal(Marshal()) error = %v", err)
	}
	if node[0]["compare_to"] != 2 || node[1]["compare_to"] != "r:-2" {
		t.Errorf("Marshal() = %s, want an int index and a relative string", out)
	}
}

func TestRef_JSON(t *testing.T) {
	in := Rule{Cond: "a", CompareTo: Relative(-2), Explicit: true}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"cond":"a","compare_to":"r:-2","explicit":true}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out Rule
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if *out.CompareTo != *in.CompareTo || !out.Explicit {
		t.Errorf("Unmarshal() = %+v", out)
	}
}
