package rules

import (
	"fmt"
	"strings"

	"github.com/PhucNguyen204/regexcheck/pkg/check"
)

// Severity mirrors the priority levels of the rule catalogue.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
	SeverityBlocker  Severity = "blocker"
)

// ParseSeverity accepts any casing; empty selects the template default.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case "":
		return SimpleCheckTemplate.Severity, nil
	case SeverityInfo, SeverityMinor, SeverityMajor, SeverityCritical, SeverityBlocker:
		return sev, nil
	default:
		return "", fmt.Errorf("%w: unknown severity %q", ErrInvalidRule, s)
	}
}

// RepositoryInfo identifies the rule catalogue.
type RepositoryInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Repository is the catalogue every regex rule belongs to.
var Repository = RepositoryInfo{Key: "regex", Name: "Regular Expressions"}

// Template holds the metadata a rule inherits when its file leaves it out.
type Template struct {
	Key         string
	Name        string
	Tags        []string
	Severity    Severity
	Remediation string
}

// SimpleCheckTemplate is the one rule template of the catalogue: a single
// regular expression with optional invert mode.
var SimpleCheckTemplate = Template{
	Key:         "RegularExpressionSimpleCheck",
	Name:        "Architectural constraints imposed by the regular expression should be fulfilled",
	Tags:        []string{"custom", "architectural-constraints"},
	Severity:    SeverityMajor,
	Remediation: "10min",
}

// Rule is one configured instance of the simple check template.
type Rule struct {
	Key         string   `yaml:"key" json:"key"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Severity    Severity `yaml:"severity" json:"severity"`
	Tags        []string `yaml:"tags" json:"tags,omitempty"`
	Remediation string   `yaml:"remediation" json:"remediation,omitempty"`

	check.Check `yaml:",inline"`

	// Source is the file the rule was loaded from, if any.
	Source string `yaml:"-" json:"source,omitempty"`
}

// applyDefaults fills metadata left out of the rule file.
func (r *Rule) applyDefaults() error {
	r.Key = strings.TrimSpace(r.Key)
	if r.Name == "" {
		r.Name = r.Key
	}
	sev, err := ParseSeverity(string(r.Severity))
	if err != nil {
		return err
	}
	r.Severity = sev
	if len(r.Tags) == 0 {
		r.Tags = append([]string(nil), SimpleCheckTemplate.Tags...)
	}
	if r.Remediation == "" {
		r.Remediation = SimpleCheckTemplate.Remediation
	}
	if r.IssueMessage == "" {
		r.IssueMessage = check.DefaultIssueMessage
	}
	if r.InvertModeIssueMessage == "" {
		r.InvertModeIssueMessage = check.DefaultInvertModeIssueMessage
	}
	return nil
}

// Compile compiles the rule's check. The error names the rule and wraps the
// *check.EvaluationError.
func (r Rule) Compile() (*check.CompiledCheck, error) {
	cc, err := r.Check.Compile()
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", r.Key, err)
	}
	return cc, nil
}
