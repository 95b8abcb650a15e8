package rules

import "fmt"

// Ruleset is an ordered, validated collection of rules with unique keys and
// names.
type Ruleset struct {
	rules []Rule
	byKey map[string]int
}

// NewRuleset validates rules and keeps them in the given order.
func NewRuleset(rules ...Rule) (*Ruleset, error) {
	rs := &Ruleset{
		rules: make([]Rule, 0, len(rules)),
		byKey: make(map[string]int, len(rules)),
	}
	names := make(map[string]string, len(rules))
	for _, r := range rules {
		if r.Key == "" {
			return nil, fmt.Errorf("%w (name %q)", ErrMissingKey, r.Name)
		}
		if _, dup := rs.byKey[r.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key)
		}
		if other, dup := names[r.Name]; dup {
			return nil, fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateName, r.Name, other, r.Key)
		}
		names[r.Name] = r.Key
		rs.byKey[r.Key] = len(rs.rules)
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Len returns the number of rules.
func (rs *Ruleset) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns a copy of the rules in order.
func (rs *Ruleset) Rules() []Rule {
	if rs == nil {
		return nil
	}
	return append([]Rule(nil), rs.rules...)
}

// Get looks a rule up by key.
func (rs *Ruleset) Get(key string) (Rule, bool) {
	if rs == nil {
		return Rule{}, false
	}
	i, ok := rs.byKey[key]
	if !ok {
		return Rule{}, false
	}
	return rs.rules[i], true
}

// Keys returns the rule keys in order.
func (rs *Ruleset) Keys() []string {
	out := make([]string, 0, rs.Len())
	for _, r := range rs.Rules() {
		out = append(out, r.Key)
	}
	return out
}
