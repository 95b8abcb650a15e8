package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawDocument accepts either a single rule mapping or a "rules:" list.
type rawDocument struct {
	Rules []Rule `yaml:"rules"`
	Rule  `yaml:",inline"`
}

// LoadRuleYAML decodes every rule in b. A stream may hold several documents
// separated by "---"; each document is a rule mapping or a mapping with a
// "rules" list.
func LoadRuleYAML(b []byte) ([]Rule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	var out []Rule
	for i := 0; ; i++ {
		var doc rawDocument
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", ErrInvalidRule, i, err)
		}
		rules := doc.Rules
		if len(rules) == 0 && (doc.Key != "" || doc.Pattern != "") {
			rules = []Rule{doc.Rule}
		}
		for j := range rules {
			if err := rules[j].applyDefaults(); err != nil {
				return nil, fmt.Errorf("document %d rule %d: %w", i, j, err)
			}
		}
		out = append(out, rules...)
	}
	if len(out) == 0 {
		return nil, ErrNoRules
	}
	return out, nil
}

// LoadRuleFile reads and decodes one YAML rule file.
func LoadRuleFile(path string) ([]Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rules, err := LoadRuleYAML(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range rules {
		rules[i].Source = path
	}
	return rules, nil
}

func isYAML(p string) bool {
	l := strings.ToLower(p)
	return strings.HasSuffix(l, ".yml") || strings.HasSuffix(l, ".yaml")
}

// LoadDirRecursive loads every .yml/.yaml file under root in lexical order.
func LoadDirRecursive(root string) ([]Rule, error) {
	var out []Rule
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(p) {
			return nil
		}
		rs, err := LoadRuleFile(p)
		if err != nil {
			return err
		}
		out = append(out, rs...)
		return nil
	})
	return out, err
}
