package check

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"strconv"
	"strings"
	"sync"

	"go.elara.ws/pcre"
)

// Dialect selects the regular-expression engine a pattern is compiled with.
type Dialect int

const (
	// DialectRE2 uses the standard library engine (linear time, no lookaround).
	DialectRE2 Dialect = iota
	// DialectPCRE uses a PCRE2 engine (lookaround, backreferences).
	DialectPCRE
)

func (d Dialect) String() string {
	switch d {
	case DialectRE2:
		return "re2"
	case DialectPCRE:
		return "pcre"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect maps a configuration value to a Dialect. The empty string
// selects DialectRE2.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "re2", "go":
		return DialectRE2, nil
	case "pcre", "pcre2":
		return DialectPCRE, nil
	default:
		return DialectRE2, &ConfigurationError{Message: fmt.Sprintf("unknown regular expression dialect %q", s)}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Dialect) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dialect) UnmarshalText(b []byte) error {
	v, err := ParseDialect(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Pattern is a compiled, immutable regular expression. It is safe to share
// between goroutines; per-evaluation scan state lives in Sequence.
type Pattern struct {
	source  string
	dialect Dialect

	re   *regexp.Regexp
	pcre *pcreProgram

	// stepwise is true when searchFrom at an arbitrary offset sees the same
	// result as a search over the whole text. PCRE always searches the whole
	// subject from a start offset; RE2 resumes on a suffix and so must not
	// use ^, \A, \b or \B.
	stepwise bool
}

// String returns the source pattern.
func (p *Pattern) String() string { return p.source }

// Dialect returns the engine the pattern was compiled with.
func (p *Pattern) Dialect() Dialect { return p.dialect }

// NumGroups returns the number of capture groups.
func (p *Pattern) NumGroups() int {
	if p.pcre != nil {
		return p.pcre.numSubexp()
	}
	return p.re.NumSubexp()
}

// Regexp returns the standard library regexp for RE2 patterns, nil otherwise.
func (p *Pattern) Regexp() *regexp.Regexp { return p.re }

// searchFrom returns submatch indexes of the leftmost match at or after pos.
func (p *Pattern) searchFrom(text string, pos int) ([]int, error) {
	if p.pcre != nil {
		return p.pcre.searchFrom(text, pos)
	}
	loc := p.re.FindStringSubmatchIndex(text[pos:])
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += pos
		}
	}
	return loc, nil
}

// findAll returns submatch index slices for every non-overlapping match of
// an RE2 pattern.
func (p *Pattern) findAll(text string) [][]int {
	return p.re.FindAllStringSubmatchIndex(text, -1)
}

// -------------------- Compile (with cache) --------------------

type cacheKey struct {
	dialect Dialect
	pattern string
}

var patternCache sync.Map // map[cacheKey]*Pattern

// Compile validates and compiles pattern. It returns *ConfigurationError for
// an empty pattern (without attempting compilation) and *PatternSyntaxError
// for invalid syntax. Successful compilations are cached by dialect and
// source; use CompileUncached for one-off patterns from untrusted callers.
func Compile(pattern string, dialect Dialect) (*Pattern, error) {
	key := cacheKey{dialect: dialect, pattern: pattern}
	if p, ok := patternCache.Load(key); ok {
		return p.(*Pattern), nil
	}
	p, err := CompileUncached(pattern, dialect)
	if err != nil {
		return nil, err
	}
	actual, _ := patternCache.LoadOrStore(key, p)
	return actual.(*Pattern), nil
}

// CompileUncached is Compile without the process-wide cache. The result is
// released with the last reference to it.
func CompileUncached(pattern string, dialect Dialect) (*Pattern, error) {
	if pattern == "" {
		return nil, &ConfigurationError{Pattern: pattern, Message: EmptyPatternMessage}
	}
	switch dialect {
	case DialectRE2:
		return compileRE2(pattern)
	case DialectPCRE:
		return compilePCRE(pattern)
	default:
		return nil, &ConfigurationError{Pattern: pattern, Message: fmt.Sprintf("unknown regular expression dialect %s", dialect)}
	}
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, dialect Dialect) *Pattern {
	p, err := Compile(pattern, dialect)
	if err != nil {
		panic(err)
	}
	return p
}

func compileRE2(pattern string) (*Pattern, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, re2SyntaxError(pattern, err)
	}
	stepwise := false
	if tree, perr := syntax.Parse(pattern, syntax.Perl); perr == nil {
		stepwise = !hasContextAssertion(tree)
	}
	return &Pattern{source: pattern, dialect: DialectRE2, re: re, stepwise: stepwise}, nil
}

// compilePCRE validates with the pcre package, whose errors carry the
// offending offset, then builds the program used for offset searches. The
// validating Regexp is left to its finalizer; Close followed by the finalizer
// would free it twice.
func compilePCRE(pattern string) (*Pattern, error) {
	if _, err := pcre.Compile(pattern); err != nil {
		return nil, pcreSyntaxError(pattern, err)
	}
	prog, err := newPCREProgram(pattern)
	if err != nil {
		return nil, err
	}
	return &Pattern{source: pattern, dialect: DialectPCRE, pcre: prog, stepwise: true}, nil
}

// hasContextAssertion reports whether the tree contains an empty-width
// assertion that inspects the rune before the current position.
func hasContextAssertion(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginLine, syntax.OpBeginText, syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	}
	for _, sub := range re.Sub {
		if hasContextAssertion(sub) {
			return true
		}
	}
	return false
}

// -------------------- Syntax diagnostics --------------------

var re2Descriptions = map[syntax.ErrorCode]string{
	syntax.ErrMissingParen:          "Unclosed group",
	syntax.ErrUnexpectedParen:       "Unmatched closing ')'",
	syntax.ErrMissingBracket:        "Unclosed character class",
	syntax.ErrInvalidCharClass:      "Illegal character class",
	syntax.ErrInvalidCharRange:      "Illegal character range",
	syntax.ErrInvalidEscape:         "Illegal/unsupported escape sequence",
	syntax.ErrInvalidNamedCapture:   "Invalid named capturing group",
	syntax.ErrInvalidPerlOp:         "Unknown inline modifier",
	syntax.ErrInvalidRepeatOp:       "Illegal repetition",
	syntax.ErrInvalidRepeatSize:     "Illegal repetition range",
	syntax.ErrInvalidUTF8:           "Illegal UTF-8 sequence",
	syntax.ErrTrailingBackslash:     "Unexpected trailing backslash",
	syntax.ErrNestingDepth:          "Expression nesting too deep",
	syntax.ErrLarge:                 "Expression too large",
	syntax.ErrMissingRepeatArgument: "Dangling meta character",
}

func re2SyntaxError(pattern string, err error) *PatternSyntaxError {
	out := &PatternSyntaxError{Pattern: pattern, Index: -1, Description: err.Error(), Err: err}
	var se *syntax.Error
	if !errors.As(err, &se) {
		return out
	}
	if desc, ok := re2Descriptions[se.Code]; ok {
		out.Description = desc
	} else {
		out.Description = se.Code.String()
	}
	switch se.Code {
	case syntax.ErrMissingParen:
		// The whole pattern was consumed without finding the close.
		out.Index = len(pattern)
	case syntax.ErrMissingRepeatArgument:
		out.Description = fmt.Sprintf("%s '%s'", out.Description, se.Expr)
		out.Index = strings.Index(pattern, se.Expr)
	default:
		if se.Expr != "" {
			out.Index = strings.Index(pattern, se.Expr)
		}
	}
	return out
}

var pcreDescriptions = []struct{ needle, desc string }{
	{"missing closing parenthesis", "Unclosed group"},
	{"missing )", "Unclosed group"},
	{"unmatched closing parenthesis", "Unmatched closing ')'"},
	{"missing terminating ]", "Unclosed character class"},
	{"quantifier does not follow a repeatable item", "Dangling meta character"},
	{"nothing to repeat", "Dangling meta character"},
	{"range out of order", "Illegal character range"},
	{"unrecognized character after (?", "Unknown inline modifier"},
}

var pcreOffset = regexp.MustCompile(`offset (\d+)`)

func pcreSyntaxError(pattern string, err error) *PatternSyntaxError {
	msg := err.Error()
	out := &PatternSyntaxError{Pattern: pattern, Index: -1, Description: msg, Err: err}
	lower := strings.ToLower(msg)
	for _, d := range pcreDescriptions {
		if strings.Contains(lower, d.needle) {
			out.Description = d.desc
			break
		}
	}
	if m := pcreOffset.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			out.Index = n
		}
	}
	return out
}
