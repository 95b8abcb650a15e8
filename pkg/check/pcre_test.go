package check

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func spans(ms []Match) [][2]int {
	out := [][2]int{}
	for _, m := range ms {
		out = append(out, [2]int{m.Start, m.End})
	}
	return out
}

func TestPCREEmptyMatchesAgreeWithRE2(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    int
	}{
		{`x*`, "abc", 4},
		{`x*`, "é", 2},
		{`^$`, "", 1},
		{`b|`, "abc", 3},
		{`(?m)^`, "a\nb", 2},
		{`a*`, "baaab", 3},
		{`\d+`, "a1b22", 2},
	}
	for _, tt := range tests {
		re2 := spans(NewSequence(MustCompile(tt.pattern, DialectRE2), tt.text).Collect())
		seq := NewSequence(MustCompile(tt.pattern, DialectPCRE), tt.text)
		pcre := spans(seq.Collect())
		if seq.Err() != nil {
			t.Fatalf("%q on %q: %v", tt.pattern, tt.text, seq.Err())
		}
		if len(re2) != tt.want {
			t.Fatalf("%q on %q: re2 found %v, want %d matches", tt.pattern, tt.text, re2, tt.want)
		}
		if !reflect.DeepEqual(pcre, re2) {
			t.Fatalf("%q on %q: pcre %v, re2 %v", tt.pattern, tt.text, pcre, re2)
		}
	}
}

func TestPCRELookaroundSeesWholeText(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    [][2]int
	}{
		{`(?=Logger)`, "private Logger log;", [][2]int{{8, 8}}},
		{`(?<=a)`, "ab", [][2]int{{1, 1}}},
		{`(?<=a)b`, "ab ab", [][2]int{{1, 2}, {4, 5}}},
		{`\bb`, "ab b", [][2]int{{3, 4}}},
	}
	for _, tt := range tests {
		seq := NewSequence(MustCompile(tt.pattern, DialectPCRE), tt.text)
		if got := spans(seq.Collect()); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%q on %q: got %v, want %v", tt.pattern, tt.text, got, tt.want)
		}
	}
}

func TestPCREZeroWidthInvertMode(t *testing.T) {
	c := Check{Pattern: `(?=Logger)`, Dialect: DialectPCRE, InvertMode: true}
	findings, err := c.Evaluate("private Logger log;")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(findings) != 1 || !findings[0].HasLine() || findings[0].Column != 9 {
		t.Fatalf("findings = %+v", findings)
	}

	findings, err = c.Evaluate("")
	if err != nil || len(findings) != 1 || findings[0].HasLine() {
		t.Fatalf("empty text: %+v, %v", findings, err)
	}
}

func TestPCREGroups(t *testing.T) {
	p := MustCompile(`(a)|(b)`, DialectPCRE)
	if p.NumGroups() != 2 {
		t.Fatalf("NumGroups = %d", p.NumGroups())
	}
	ms := NewSequence(p, "ba").Collect()
	if len(ms) != 2 || !reflect.DeepEqual(ms[0].Groups, []string{"", "b"}) || !reflect.DeepEqual(ms[1].Groups, []string{"a", ""}) {
		t.Fatalf("matches = %+v", ms)
	}
}

func TestPCREMatchLimitIsAnError(t *testing.T) {
	saved := pcreMatchLimit
	pcreMatchLimit = 10_000
	p, err := CompileUncached(`(a+)+$`, DialectPCRE)
	pcreMatchLimit = saved
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	text := strings.Repeat("a", 40) + "!"

	seq := NewSequence(p, text)
	if seq.HasNext() {
		t.Fatalf("unexpected match")
	}
	if !IsMatchError(seq.Err()) {
		t.Fatalf("Err = %v, want *MatchError", seq.Err())
	}
	if _, err := seq.Next(); !errors.Is(err, ErrNoMoreMatches) {
		t.Fatalf("Next after failure = %v", err)
	}

	c := Check{Pattern: `(a+)+$`, Dialect: DialectPCRE, InvertMode: true}
	findings, err := c.bind(p).Evaluate(text)
	if !IsEvaluationError(err) || !IsMatchError(err) {
		t.Fatalf("err = %v", err)
	}
	if findings != nil {
		t.Fatalf("no finding may be reported when the search failed: %+v", findings)
	}
}

func TestCompileUncachedIsNotShared(t *testing.T) {
	const pattern = `uncached-[0-9]+`
	a, err := CompileUncached(pattern, DialectRE2)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, ok := patternCache.Load(cacheKey{dialect: DialectRE2, pattern: pattern}); ok {
		t.Fatalf("uncached compile populated the cache")
	}
	findings, err := Check{Pattern: `once-[0-9]+`, Dialect: DialectPCRE}.EvaluateOnce("once-1 once-2")
	if err != nil || len(findings) != 2 {
		t.Fatalf("EvaluateOnce = %+v, %v", findings, err)
	}
	if _, ok := patternCache.Load(cacheKey{dialect: DialectPCRE, pattern: `once-[0-9]+`}); ok {
		t.Fatalf("EvaluateOnce populated the cache")
	}
	if b := MustCompile(pattern, DialectRE2); a == b {
		t.Fatalf("cached and uncached patterns must differ")
	}
}
