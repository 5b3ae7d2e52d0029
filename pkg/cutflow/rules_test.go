package cutflow

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleRules = `tree: TupleB0/DecayTree
init_num: 2333
rules:
  - cond: L0
    key: L0
  - cond: Hlt1
    name: Hlt1
  - cond: |
      muplus_isMuon &
      Y_M < 5280
    compare_to: 0
    explicit: true
`

func TestParseRules(t *testing.T) {
	set, err := ParseRules([]byte(sampleRules))
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}

	if set.Tree != "TupleB0/DecayTree" || set.InitNum != 2333 {
		t.Errorf("header = %q %d", set.Tree, set.InitNum)
	}
	if len(set.Rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(set.Rules))
	}
	if set.Rules[1].Name != "Hlt1" || set.Rules[1].CompareTo != nil {
		t.Errorf("rule 1 = %+v", set.Rules[1])
	}
	last := set.Rules[2]
	if !last.Explicit || last.CompareTo == nil || *last.CompareTo != *Index(0) {
		t.Errorf("rule 2 = %+v", last)
	}
	if got := last.Normalize().Cond; got != "muplus_isMuon & Y_M < 5280" {
		t.Errorf("rule 2 cond = %q", got)
	}

	for i, want := range []int{4, 6, 8} {
		if got := set.Line(i); got != want {
			t.Errorf("Line(%d) = %d, want %d", i, got, want)
		}
	}
	if set.Line(9) != 0 {
		t.Error("Line() out of range should be 0")
	}
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{"empty", "", "rules file is empty"},
		{"no rules", "tree: t\n", "rules file has no rules"},
		{"unknown field", "rules:\n  - cond: a\n    cut: b\n", "invalid rules file"},
		{"bad reference", "rules:\n  - cond: a\n    compare_to: prev\n", "invalid rules file"},
		{"negative init", "init_num: -5\nrules:\n  - cond: a\n", "init_num must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.data))
			var rfe *RulesFileError
			if !errors.As(err, &rfe) {
				t.Fatalf("ParseRules() error = %v, want *RulesFileError", err)
			}
			if rfe.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", rfe.Message, tt.wantMsg)
			}
		})
	}
}

func TestParseRules_NegativeInitLocation(t *testing.T) {
	_, err := ParseRules([]byte("tree: t\ninit_num: -5\nrules:\n  - cond: a\n"))
	var rfe *RulesFileError
	if !errors.As(err, &rfe) {
		t.Fatalf("error = %v", err)
	}
	if rfe.Line != 2 {
		t.Errorf("Line = %d, want 2", rfe.Line)
	}
	if !strings.Contains(rfe.Error(), "<rules>:2:1") {
		t.Errorf("Error() = %q", rfe.Error())
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(sampleRules), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(set.Rules) != 3 {
		t.Errorf("got %d rules", len(set.Rules))
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("rules: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadRules(bad)
	var rfe *RulesFileError
	if !errors.As(err, &rfe) || rfe.Path != bad {
		t.Errorf("LoadRules() error = %v, want RulesFileError for %s", err, bad)
	}

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadRules() error = %v, want not exist", err)
	}
}

func TestRuleSet_MarshalRoundTrip(t *testing.T) {
	set, err := ParseRules([]byte(sampleRules))
	if err != nil {
		t.Fatal(err)
	}

	data, err := set.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := ParseRules(data)
	if err != nil {
		t.Fatalf("ParseRules(Marshal()) error = %v\n%s", err, data)
	}
	if again.InitNum != set.InitNum || len(again.Rules) != len(set.Rules) {
		t.Errorf("round trip mismatch:\n%s", data)
	}
	if *again.Rules[2].CompareTo != *Index(0) {
		t.Errorf("compare_to lost in round trip:\n%s", data)
	}
}
