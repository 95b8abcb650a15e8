package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PhucNguyen204/regexcheck/internal/analysis"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustWrite(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEvalStdin(t *testing.T) {
	out, err := execute(t, "a\nb TODO\n", "eval", "TODO")
	if !errors.Is(err, errFindings) {
		t.Fatalf("expected findings, got %v", err)
	}
	want := `stdin:2:3: [major] eval: Text "TODO" matches given regular expression "TODO"`
	if strings.TrimSpace(out) != want {
		t.Fatalf("out = %q", out)
	}
}

func TestEvalInvertClean(t *testing.T) {
	out, err := execute(t, "// Copyright\n", "eval", "--invert", "Copyright")
	if err != nil || out != "" {
		t.Fatalf("out=%q err=%v", out, err)
	}
}

func TestEvalCustomMessageJSON(t *testing.T) {
	out, err := execute(t, "x = 42", "eval", "-f", "json", "-m", "number ${match}", `\d+`)
	if !errors.Is(err, errFindings) {
		t.Fatalf("expected findings, got %v", err)
	}
	var issues []analysis.Issue
	if err := json.Unmarshal([]byte(out), &issues); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(issues) != 1 || issues[0].Message != "number 42" {
		t.Fatalf("issues = %+v", issues)
	}
}

func TestEvalBadPattern(t *testing.T) {
	_, err := execute(t, "", "eval", "(x")
	if err == nil || !strings.Contains(err.Error(), "Unclosed group") {
		t.Fatalf("err = %v", err)
	}
	if _, err := execute(t, "", "eval", "-d", "perl", "x"); err == nil {
		t.Fatalf("expected dialect error")
	}
}

func TestEvalSearchFailure(t *testing.T) {
	_, err := execute(t, strings.Repeat("a", 40)+"!", "eval", "-d", "pcre", `(a+)+$`)
	if !errors.Is(err, errSearchFailed) {
		t.Fatalf("expected search failure, got %v", err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "rules", "secrets.yml"), `
rules:
  - key: no-password
    pattern: 'password\s*='
    severity: critical
  - key: license
    pattern: 'Licensed under'
    invert_mode: true
`)
	src := filepath.Join(dir, "src")
	mustWrite(t, filepath.Join(src, "a.conf"), "Licensed under MIT\npassword = 1\n")
	mustWrite(t, filepath.Join(src, "b.conf"), "Licensed under MIT\n")

	out, err := execute(t, "", "scan", "-r", filepath.Join(dir, "rules"), src)
	if !errors.Is(err, errFindings) {
		t.Fatalf("expected findings, got %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "a.conf:2:1: [critical] no-password: Text \"password =\" matches given regular expression \"password\\s*=\"") {
		t.Fatalf("out = %q", out)
	}

	if _, err := execute(t, "", "scan", "-r", filepath.Join(dir, "rules"), filepath.Join(src, "b.conf")); err != nil {
		t.Fatalf("clean file: %v", err)
	}
}

func TestScanRequiresRules(t *testing.T) {
	if _, err := execute(t, "", "scan", t.TempDir()); err == nil {
		t.Fatalf("expected missing --rules error")
	}
	if _, err := execute(t, "", "scan", "-r", t.TempDir(), t.TempDir()); err == nil {
		t.Fatalf("expected empty rules dir error")
	}
}

func TestRulesList(t *testing.T) {
	out, err := execute(t, "", "rules")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if !strings.Contains(out, "Regular Expressions (regex)") || !strings.Contains(out, "RegularExpressionSimpleCheck") {
		t.Fatalf("out = %q", out)
	}
}
