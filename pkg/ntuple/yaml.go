package ntuple

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"umd-lhcb/tupling/pkg/boolean/value"
)

// yamlFile is the on-disk layout of a YAML ntuple fixture:
//
//	trees:
//	  TupleB0/DecayTree:
//	    runNumber: [1, 1, 2]
//	    Y_PT: [1200.5, 900.0, 3100.2]
//	    muplus_isMuon: [true, false, true]
type yamlFile struct {
	Trees map[string]map[string]yaml.Node `yaml:"trees"`
}

// LoadYAML reads a YAML ntuple file into a MemorySource.
func LoadYAML(path string) (*MemorySource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newSourceError("yaml", "read", err)
	}

	src, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// ParseYAML parses YAML ntuple data. Branch kinds are inferred from the
// elements: all bools give a bool branch, all ints an int branch, and any
// float makes the branch float.
func ParseYAML(data []byte) (*MemorySource, error) {
	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, newSourceError("yaml", "parse", err)
	}

	src := NewMemorySource()
	for tree, branches := range file.Trees {
		cols := make(map[string]value.Value, len(branches))
		for name, node := range branches {
			v, err := decodeBranch(&node)
			if err != nil {
				return nil, fmt.Errorf("tree %q branch %q: %w", tree, name, err)
			}
			cols[name] = v
		}
		if err := src.AddTree(tree, cols); err != nil {
			return nil, err
		}
	}
	return src, nil
}

func decodeBranch(node *yaml.Node) (value.Value, error) {
	if node.Kind != yaml.SequenceNode {
		return value.Value{}, fmt.Errorf("line %d: expected a sequence", node.Line)
	}

	var nBool, nInt, nFloat int
	for _, item := range node.Content {
		switch item.Tag {
		case "!!bool":
			nBool++
		case "!!int":
			nInt++
		case "!!float":
			nFloat++
		default:
			return value.Value{}, fmt.Errorf("line %d: unsupported element %q", item.Line, item.Value)
		}
	}

	switch {
	case nBool > 0 && nBool != len(node.Content):
		return value.Value{}, fmt.Errorf("line %d: cannot mix bools and numbers", node.Line)
	case nBool > 0:
		var out []bool
		if err := node.Decode(&out); err != nil {
			return value.Value{}, err
		}
		return value.Bools(out), nil
	case nFloat > 0:
		var out []float64
		if err := node.Decode(&out); err != nil {
			return value.Value{}, err
		}
		return value.Floats(out), nil
	default:
		var out []int64
		if err := node.Decode(&out); err != nil {
			return value.Value{}, err
		}
		return value.Ints(out), nil
	}
}
