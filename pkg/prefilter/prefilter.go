// Package prefilter skips regular-expression evaluation for texts that cannot
// match: every match of a pattern must contain one of its required literals,
// and an Aho-Corasick scan for those literals is much cheaper than the regex.
package prefilter

import (
	"fmt"
	"sync/atomic"

	ac "github.com/petar-dambovaliev/aho-corasick"

	"github.com/PhucNguyen204/regexcheck/pkg/check"
)

// -------------------- Config --------------------

type Config struct {
	// Master switch
	Enabled bool `json:"enabled"`
	// Literal sets containing a shorter literal are not used
	MinLiteralLength int `json:"min_literal_length"`
	// Literal sets larger than this are not used (0 = no limit)
	MaxLiterals int `json:"max_literals"`
}

func DefaultConfig() Config {
	return Config{Enabled: true, MinLiteralLength: 3, MaxLiterals: 256}
}

func DisabledConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = false
	return cfg
}

// -------------------- Statistics --------------------

type Stats struct {
	// Number of literals in the automaton
	PatternCount int `json:"pattern_count"`
	// Texts where a literal was found (regex must run)
	Hits int64 `json:"hits"`
	// Texts rejected without running the regex
	Misses int64 `json:"misses"`
}

// Selectivity is the share of texts that still needed the regex.
func (s Stats) Selectivity() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 1.0
	}
	return float64(s.Hits) / float64(total)
}

func (s Stats) Summary() string {
	if s.PatternCount == 0 {
		return "No literals - prefilter disabled"
	}
	return fmt.Sprintf("AhoCorasick (%d literals), %.1f%% of texts skipped", s.PatternCount, (1-s.Selectivity())*100)
}

// -------------------- Filter --------------------

// Filter answers "can this text possibly match?" for one pattern. The zero
// value and a nil *Filter always answer yes. A Filter is safe for concurrent
// use.
type Filter struct {
	automaton *ac.AhoCorasick
	literals  []string
	fold      bool

	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a filter for p. PCRE patterns and patterns without a usable
// literal set produce a pass-through filter.
func New(p *check.Pattern, cfg Config) *Filter {
	f := &Filter{}
	if !cfg.Enabled || p == nil || p.Dialect() != check.DialectRE2 {
		return f
	}
	lits, fold, ok := RequiredLiterals(p.String(), cfg.MinLiteralLength)
	if !ok || (cfg.MaxLiterals > 0 && len(lits) > cfg.MaxLiterals) {
		return f
	}
	builder := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: fold,
		MatchKind:            ac.LeftMostLongestMatch,
	})
	automaton := builder.Build(lits)
	f.automaton = &automaton
	f.literals = lits
	f.fold = fold
	return f
}

// Enabled reports whether the filter can reject texts.
func (f *Filter) Enabled() bool { return f != nil && f.automaton != nil }

// Literals returns the required literals, nil for a pass-through filter.
func (f *Filter) Literals() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.literals...)
}

// MayMatch returns false only if no match of the pattern can exist in text.
func (f *Filter) MayMatch(text string) bool {
	if !f.Enabled() {
		return true
	}
	if f.automaton.Iter(text).Next() != nil {
		f.hits.Add(1)
		return true
	}
	f.misses.Add(1)
	return false
}

func (f *Filter) Stats() Stats {
	if f == nil {
		return Stats{}
	}
	return Stats{
		PatternCount: len(f.literals),
		Hits:         f.hits.Load(),
		Misses:       f.misses.Load(),
	}
}
