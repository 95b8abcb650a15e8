// Package check evaluates a single regular-expression rule against a text and
// reports located findings.
//
// In positive mode every match is a finding. In invert mode the absence of
// any match is one file-level finding with no line.
package check

// Finding is one rule violation. Line is nil for file-level findings.
type Finding struct {
	Line    *int   `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Offset  int    `json:"offset"`
	Match   string `json:"match,omitempty"`
	Message string `json:"message"`
}

// HasLine reports whether the finding is bound to a line.
func (f Finding) HasLine() bool { return f.Line != nil }

// LineOr returns the line number, or def for file-level findings.
func (f Finding) LineOr(def int) int {
	if f.Line == nil {
		return def
	}
	return *f.Line
}

// Check is the configuration of one rule.
type Check struct {
	Pattern                string  `json:"pattern" yaml:"pattern"`
	InvertMode             bool    `json:"invert_mode" yaml:"invert_mode"`
	IssueMessage           string  `json:"issue_message,omitempty" yaml:"issue_message"`
	InvertModeIssueMessage string  `json:"invert_mode_issue_message,omitempty" yaml:"invert_mode_issue_message"`
	Dialect                Dialect `json:"dialect" yaml:"dialect"`
}

// CompiledCheck is a validated Check with its pattern compiled. It is
// immutable and may evaluate many texts concurrently.
type CompiledCheck struct {
	pattern        *Pattern
	invert         bool
	issueTemplate  string
	invertTemplate string
}

// Compile validates the check and compiles its pattern. Failures are returned
// as *EvaluationError.
func (c Check) Compile() (*CompiledCheck, error) {
	p, err := Compile(c.Pattern, c.Dialect)
	if err != nil {
		return nil, wrapEvaluation(c.Pattern, err)
	}
	return c.bind(p), nil
}

func (c Check) bind(p *Pattern) *CompiledCheck {
	cc := &CompiledCheck{
		pattern:        p,
		invert:         c.InvertMode,
		issueTemplate:  c.IssueMessage,
		invertTemplate: c.InvertModeIssueMessage,
	}
	if cc.issueTemplate == "" {
		cc.issueTemplate = DefaultIssueMessage
	}
	if cc.invertTemplate == "" {
		cc.invertTemplate = DefaultInvertModeIssueMessage
	}
	return cc
}

// Evaluate compiles the check and evaluates it against text.
func (c Check) Evaluate(text string) ([]Finding, error) {
	cc, err := c.Compile()
	if err != nil {
		return nil, err
	}
	return cc.Evaluate(text)
}

// EvaluateOnce is Evaluate for a pattern that will not be seen again: the
// compiled pattern is not kept in the process-wide cache.
func (c Check) EvaluateOnce(text string) ([]Finding, error) {
	p, err := CompileUncached(c.Pattern, c.Dialect)
	if err != nil {
		return nil, wrapEvaluation(c.Pattern, err)
	}
	return c.bind(p).Evaluate(text)
}

// Pattern returns the compiled pattern.
func (cc *CompiledCheck) Pattern() *Pattern { return cc.pattern }

// InvertMode reports the polarity of the check.
func (cc *CompiledCheck) InvertMode() bool { return cc.invert }

// Evaluate scans text and returns findings in discovery order. Matches are
// always reported; the invert-mode finding is produced only when there are
// none. A search the engine gives up on fails the whole evaluation with an
// *EvaluationError wrapping *MatchError, since absence cannot be concluded.
func (cc *CompiledCheck) Evaluate(text string) ([]Finding, error) {
	seq := NewSequence(cc.pattern, text)
	if !seq.HasNext() {
		if err := seq.Err(); err != nil {
			return nil, wrapEvaluation(cc.pattern.String(), err)
		}
		if cc.invert {
			return []Finding{cc.MissingFinding()}, nil
		}
		return nil, nil
	}
	lines := NewLineIndex(text)
	var out []Finding
	for seq.HasNext() {
		m, _ := seq.Next()
		out = append(out, cc.matchFinding(lines, m))
	}
	if err := seq.Err(); err != nil {
		return nil, wrapEvaluation(cc.pattern.String(), err)
	}
	return out, nil
}

// MissingFinding builds the file-level finding reported in invert mode when
// the text holds no match.
func (cc *CompiledCheck) MissingFinding() Finding {
	f := NewFormatter(cc.invertTemplate)
	_ = f.SetValue(KeyRegex, cc.pattern.String())
	return Finding{Message: f.Format()}
}

func (cc *CompiledCheck) matchFinding(lines *LineIndex, m Match) Finding {
	f := NewFormatter(cc.issueTemplate)
	_ = f.SetValue(KeyMatch, m.Text)
	_ = f.SetValue(KeyRegex, cc.pattern.String())
	line := lines.Line(m.Start)
	return Finding{
		Line:    &line,
		Column:  lines.Column(m.Start),
		Offset:  m.Start,
		Match:   m.Text,
		Message: f.Format(),
	}
}

// Evaluate runs one RE2 rule against text. Configuration and pattern-syntax
// failures are returned as *EvaluationError.
func Evaluate(pattern string, invertMode bool, text, issueTemplate, invertTemplate string) ([]Finding, error) {
	return Check{
		Pattern:                pattern,
		InvertMode:             invertMode,
		IssueMessage:           issueTemplate,
		InvertModeIssueMessage: invertTemplate,
	}.Evaluate(text)
}
