package prefilter

import (
	"reflect"
	"sort"
	"testing"

	"github.com/PhucNguyen204/regexcheck/pkg/check"
)

func TestRequiredLiterals(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
		fold    bool
		ok      bool
	}{
		{`password\s*=`, []string{"password"}, false, true},
		{`(foo|barbaz)\d+`, []string{"barbaz", "foo"}, false, true},
		{`(?i)bearer`, []string{"BEARER"}, true, true}, // stored as the minimal fold rune
		{`(?i)secret`, nil, false, false},              // 's' folds to U+017F
		{`x*`, nil, false, false},
		{`(abc)?def`, []string{"def"}, false, true},
		{`ab`, nil, false, false},      // below min length
		{`foo|\d+`, nil, false, false}, // one branch has no literal
		{`(?:warn){2,}`, []string{"warn"}, false, true},
		{`(unclosed`, nil, false, false},
		{"\uFFFDabc", nil, false, false}, // U+FFFD also matches invalid bytes
		{"\uFFFDabc|defg", nil, false, false},
		{"\uFFFD?abc", []string{"abc"}, false, true},
	}
	for _, tt := range tests {
		lits, fold, ok := RequiredLiterals(tt.pattern, 3)
		sort.Strings(lits)
		if ok != tt.ok || fold != tt.fold {
			t.Fatalf("%q: ok=%v fold=%v", tt.pattern, ok, fold)
		}
		if tt.ok && !reflect.DeepEqual(lits, tt.want) {
			t.Fatalf("%q: lits=%v want %v", tt.pattern, lits, tt.want)
		}
	}
}

func TestFilterMayMatch(t *testing.T) {
	f := New(check.MustCompile(`api[_-]?key\s*=\s*\w+`, check.DialectRE2), DefaultConfig())
	if !f.Enabled() {
		t.Fatalf("filter should be enabled")
	}
	if !f.MayMatch("const api_key = abc") {
		t.Fatalf("text with literal must pass")
	}
	if f.MayMatch("nothing to see") {
		t.Fatalf("text without literal must be rejected")
	}
	st := f.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.PatternCount != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.Selectivity() != 0.5 {
		t.Fatalf("selectivity = %v", st.Selectivity())
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	f := New(check.MustCompile(`(?i)bearer \w+`, check.DialectRE2), DefaultConfig())
	if !f.Enabled() {
		t.Fatalf("filter should be enabled")
	}
	if !f.MayMatch("Authorization: BEARER abc") {
		t.Fatalf("fold-case literal must match")
	}
}

func TestFilterPassThrough(t *testing.T) {
	cases := []*Filter{
		nil,
		New(check.MustCompile(`\d+`, check.DialectRE2), DefaultConfig()),
		New(check.MustCompile(`password`, check.DialectRE2), DisabledConfig()),
		New(check.MustCompile(`password`, check.DialectPCRE), DefaultConfig()),
	}
	for i, f := range cases {
		if f.Enabled() {
			t.Fatalf("case %d should be pass-through", i)
		}
		if !f.MayMatch("anything") {
			t.Fatalf("case %d rejected text", i)
		}
		if f.Literals() != nil {
			t.Fatalf("case %d literals", i)
		}
	}
}

// A rejected text must never have a match.
func TestFilterAgreesWithRegex(t *testing.T) {
	patterns := []string{`password\s*=`, `(foo|barbaz)\d+`, `(?i)token`, `(abc)?def`, `(?:warn){2,}`, "\uFFFDabc", "x\uFFFD\uFFFDyz"}
	texts := []string{"", "password =", "PASSWORD =", "foo1", "barbaz", "TOKEN", "xdef", "warnwarn", "warn", "\xffabc", "\uFFFDabc", "x\xfe\xffyz"}
	for _, p := range patterns {
		pat := check.MustCompile(p, check.DialectRE2)
		f := New(pat, DefaultConfig())
		for _, text := range texts {
			if !f.MayMatch(text) && pat.Regexp().MatchString(text) {
				t.Fatalf("pattern %q rejected matching text %q", p, text)
			}
		}
	}
}
