package prefilter

import (
	"regexp/syntax"
	"unicode/utf8"
)

// RequiredLiterals derives from an RE2 pattern a set of strings at least one
// of which occurs in every match. ok is false when no such set is known, in
// which case the pattern must always be evaluated. fold reports that the
// literals must be compared ASCII case-insensitively.
func RequiredLiterals(pattern string, minLen int) (lits []string, fold bool, ok bool) {
	tree, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, false, false
	}
	lits, fold, ok = required(tree)
	if !ok || len(lits) == 0 {
		return nil, false, false
	}
	for _, l := range lits {
		if len(l) < minLen {
			return nil, false, false
		}
	}
	return dedup(lits), fold, true
}

func required(re *syntax.Regexp) ([]string, bool, bool) {
	switch re.Op {
	case syntax.OpLiteral:
		// The engine matches U+FFFD against any invalid byte, which a byte
		// search for its UTF-8 encoding would miss.
		for _, r := range re.Rune {
			if r == utf8.RuneError {
				return nil, false, false
			}
		}
		s := string(re.Rune)
		fold := re.Flags&syntax.FoldCase != 0
		if fold && !safeFold(s) {
			return nil, false, false
		}
		return []string{s}, fold, true

	case syntax.OpCapture, syntax.OpPlus:
		return required(re.Sub[0])

	case syntax.OpRepeat:
		if re.Min < 1 {
			return nil, false, false
		}
		return required(re.Sub[0])

	case syntax.OpConcat:
		var (
			best     []string
			bestFold bool
			bestLen  = -1
		)
		for _, sub := range re.Sub {
			lits, fold, ok := required(sub)
			if !ok {
				continue
			}
			if l := shortest(lits); l > bestLen {
				best, bestFold, bestLen = lits, fold, l
			}
		}
		return best, bestFold, bestLen >= 0

	case syntax.OpAlternate:
		var (
			out     []string
			anyFold bool
		)
		for _, sub := range re.Sub {
			lits, fold, ok := required(sub)
			if !ok {
				return nil, false, false
			}
			out = append(out, lits...)
			anyFold = anyFold || fold
		}
		return out, anyFold, len(out) > 0
	}
	return nil, false, false
}

// safeFold reports whether ASCII case folding covers every Unicode fold of s.
// 'k' and 's' also fold to the Kelvin sign and long s.
func safeFold(s string) bool {
	for _, r := range s {
		if r >= utf8.RuneSelf {
			return false
		}
		switch r {
		case 'k', 'K', 's', 'S':
			return false
		}
	}
	return true
}

func shortest(lits []string) int {
	n := -1
	for _, l := range lits {
		if n < 0 || len(l) < n {
			n = len(l)
		}
	}
	return n
}

func dedup(lits []string) []string {
	seen := make(map[string]struct{}, len(lits))
	out := make([]string, 0, len(lits))
	for _, l := range lits {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
