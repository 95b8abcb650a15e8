package check

import (
	"errors"
	"strings"
	"testing"
)

const loggingPattern = `(\.(?:log|trace|debug|info|warn|error)\(.*\))`

const loggingSource = "package demo\n" +
	"\tlog.warn(\"A message\")\n" +
	"\tlog.error(\"ddd\")"

func TestEvaluateEmptyPattern(t *testing.T) {
	_, err := Evaluate("", false, "some text", DefaultIssueMessage, DefaultInvertModeIssueMessage)
	if err == nil {
		t.Fatalf("expected error for empty pattern")
	}
	if err.Error() != EmptyPatternMessage {
		t.Fatalf("message = %q", err.Error())
	}
	var ee *EvaluationError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EvaluationError, got %T", err)
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigurationError cause, got %T", ee.Err)
	}
}

func TestEvaluateUnclosedGroup(t *testing.T) {
	pattern := "Alice has a cat (qwerty"
	_, err := Evaluate(pattern, false, "Alice has a cat (qwerty", "", "")
	if err == nil {
		t.Fatalf("expected syntax error")
	}
	if !strings.Contains(err.Error(), "Unclosed group near") {
		t.Fatalf("message = %q", err.Error())
	}
	if !strings.Contains(err.Error(), pattern) {
		t.Fatalf("message should contain pattern: %q", err.Error())
	}
	var pse *PatternSyntaxError
	if !errors.As(err, &pse) {
		t.Fatalf("expected *PatternSyntaxError, got %T", err)
	}
	if pse.Index != len(pattern) {
		t.Fatalf("index = %d, want %d", pse.Index, len(pattern))
	}
	if !IsEvaluationError(err) {
		t.Fatalf("expected evaluation error wrapper")
	}
}

func TestEvaluatePositive(t *testing.T) {
	findings, err := Evaluate(loggingPattern, false, loggingSource, DefaultIssueMessage, DefaultInvertModeIssueMessage)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	want := []struct {
		line  int
		match string
	}{
		{2, `.warn("A message")`},
		{3, `.error("ddd")`},
	}
	if len(findings) != len(want) {
		t.Fatalf("got %d findings, want %d: %+v", len(findings), len(want), findings)
	}
	for i, w := range want {
		f := findings[i]
		if !f.HasLine() || *f.Line != w.line {
			t.Fatalf("finding %d line = %v, want %d", i, f.Line, w.line)
		}
		msg := `Text "` + w.match + `" matches given regular expression "` + loggingPattern + `"`
		if f.Message != msg {
			t.Fatalf("finding %d message = %q, want %q", i, f.Message, msg)
		}
		if f.Match != w.match {
			t.Fatalf("finding %d match = %q", i, f.Match)
		}
	}
	if findings[0].Column != 5 {
		t.Fatalf("column = %d, want 5", findings[0].Column)
	}
}

func TestEvaluateInvertNoMatch(t *testing.T) {
	findings, err := Evaluate("not found regex", true, loggingSource, DefaultIssueMessage, DefaultInvertModeIssueMessage)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].HasLine() {
		t.Fatalf("invert finding must not carry a line")
	}
	want := `File do not contain requested text, that should match given regular expression "not found regex"`
	if findings[0].Message != want {
		t.Fatalf("message = %q", findings[0].Message)
	}
	if findings[0].LineOr(-1) != -1 {
		t.Fatalf("LineOr should return default")
	}
}

func TestEvaluatePositiveNoMatch(t *testing.T) {
	findings, err := Evaluate("not found regex", false, loggingSource, DefaultIssueMessage, DefaultInvertModeIssueMessage)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("got %d findings, want 0", len(findings))
	}
}

func TestEvaluateInvertWithMatchesReportsMatches(t *testing.T) {
	findings, err := Evaluate(`warn`, true, loggingSource, "", "")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(findings) != 1 || !findings[0].HasLine() || *findings[0].Line != 2 {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestPolarityProperty(t *testing.T) {
	texts := []string{"", "abc", "a\nb\nc", "xyz xyz", "héllo wörld"}
	patterns := []string{`a`, `xyz`, `\d+`, `w.rld`, `^$`, `q*`}
	for _, text := range texts {
		for _, p := range patterns {
			pos, err := Evaluate(p, false, text, "", "")
			if err != nil {
				t.Fatalf("%q: %v", p, err)
			}
			inv, err := Evaluate(p, true, text, "", "")
			if err != nil {
				t.Fatalf("%q: %v", p, err)
			}
			want := len(MustCompile(p, DialectRE2).Regexp().FindAllStringIndex(text, -1))
			if len(pos) != want {
				t.Fatalf("pattern %q text %q: positive=%d want %d", p, text, len(pos), want)
			}
			if (len(pos) == 0) != (len(inv) == 1 && !inv[0].HasLine()) {
				t.Fatalf("pattern %q text %q: positive=%d invert=%+v", p, text, len(pos), inv)
			}
		}
	}
}

func TestCustomTemplates(t *testing.T) {
	c := Check{
		Pattern:                `TODO`,
		IssueMessage:           "found ${match} via ${regex} ${unknown}!",
		InvertModeIssueMessage: "missing ${Regex}",
	}
	findings, err := c.Evaluate("x TODO y")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(findings) != 1 || findings[0].Message != "found TODO via TODO !" {
		t.Fatalf("unexpected findings: %+v", findings)
	}

	c.InvertMode = true
	findings, err = c.Evaluate("clean")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(findings) != 1 || findings[0].Message != "missing TODO" {
		t.Fatalf("unexpected findings: %+v", findings)
	}
}

func TestCompiledCheckReuse(t *testing.T) {
	cc, err := Check{Pattern: `b+`}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if cc.InvertMode() {
		t.Fatalf("default polarity should be positive")
	}
	for text, want := range map[string]int{"abba bb": 2, "b\nb\nb": 3} {
		findings, err := cc.Evaluate(text)
		if err != nil || len(findings) != want {
			t.Fatalf("Evaluate(%q) = %d findings, %v; want %d", text, len(findings), err, want)
		}
	}
}

func TestFindingLinesAreOrdered(t *testing.T) {
	text := strings.Repeat("x\n", 50)
	findings, err := Evaluate(`x`, false, text, "", "")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(findings) != 50 {
		t.Fatalf("got %d findings", len(findings))
	}
	for i, f := range findings {
		if *f.Line != i+1 {
			t.Fatalf("finding %d at line %d", i, *f.Line)
		}
	}
}
