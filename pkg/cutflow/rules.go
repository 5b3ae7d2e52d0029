package cutflow

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSet is the content of a rules file:
//
//	tree: TupleB0/DecayTree
//	init_num: 2333
//	rules:
//	  - cond: muplus_L0Global_TIS & (Y_L0Global_TIS | Dst_2010_minus_L0HadronDecision_TOS)
//	    key: L0
//	  - cond: Kplus_Hlt1Phys_Dec
//	    name: Hlt1
//	  - cond: muplus_isMuon
//	    compare_to: r:-2
//	    explicit: true
type RuleSet struct {
	Tree    string `yaml:"tree,omitempty"`
	InitNum int64  `yaml:"init_num,omitempty"`
	Rules   []Rule `yaml:"rules"`

	// Lines holds the line of each rule in the file, when parsed from one.
	Lines []int `yaml:"-"`
}

// LoadRules reads and parses a rules file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RulesFileError{Path: path, Message: "failed to read rules file", Cause: err}
	}

	set, err := ParseRules(data)
	if err != nil {
		var rfe *RulesFileError
		if errors.As(err, &rfe) {
			rfe.Path = path
		}
		return nil, err
	}
	return set, nil
}

// ParseRules parses rules file content. Unknown fields are rejected.
func ParseRules(data []byte) (*RuleSet, error) {
	var set RuleSet

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &RulesFileError{Message: "rules file is empty"}
		}
		return nil, &RulesFileError{Message: "invalid rules file", Cause: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err == nil {
		set.Lines = ruleLines(&root)
	}

	if len(set.Rules) == 0 {
		return nil, &RulesFileError{Message: "rules file has no rules"}
	}
	if set.InitNum < 0 {
		return nil, &RulesFileError{Line: keyLine(&root, "init_num"), Column: 1, Message: "init_num must not be negative"}
	}

	return &set, nil
}

// Marshal renders the rule set as YAML.
func (s *RuleSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Line returns the file line of rule i, or 0 when unknown.
func (s *RuleSet) Line(i int) int {
	if i < 0 || i >= len(s.Lines) {
		return 0
	}
	return s.Lines[i]
}

// ruleLines returns the line of every item of the top-level rules sequence.
func ruleLines(root *yaml.Node) []int {
	seq := mappingValue(root, "rules")
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	lines := make([]int, len(seq.Content))
	for i, item := range seq.Content {
		lines[i] = item.Line
	}
	return lines
}

func keyLine(root *yaml.Node, key string) int {
	if v := mappingValue(root, key); v != nil {
		return v.Line
	}
	return 0
}

func mappingValue(root *yaml.Node, key string) *yaml.Node {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == key {
			return doc.Content[i+1]
		}
	}
	return nil
}
