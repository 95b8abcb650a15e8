package check

import "unicode/utf8"

// Match is one non-overlapping regular-expression match. Offsets are byte
// positions into the scanned text; End is exclusive.
type Match struct {
	Start  int
	End    int
	Text   string
	Groups []string
}

// Len returns the byte length of the match.
func (m Match) Len() int { return m.End - m.Start }

// IsEmpty reports whether the match is zero-length.
func (m Match) IsEmpty() bool { return m.Start == m.End }

// Sequence is a lazy, pull-based series of matches of one pattern against one
// text. HasNext and Next may be interleaved freely: HasNext fills a single
// pending slot and never searches twice for the same match, Next empties it.
//
// A search the engine cannot finish ends the sequence; Err reports why.
//
// A Sequence is not safe for concurrent use and cannot be restarted.
type Sequence struct {
	pattern *Pattern
	text    string

	pending *Match
	done    bool
	err     error

	// stepwise scan state
	pos          int
	prevMatchEnd int

	// batch scan state
	locs    [][]int
	fetched bool
	cursor  int
}

// NewSequence returns a sequence over the matches of p in text. No search is
// performed until the first HasNext or Next call.
func NewSequence(p *Pattern, text string) *Sequence {
	return &Sequence{pattern: p, text: text, prevMatchEnd: -1}
}

// HasNext reports whether another match is available.
func (s *Sequence) HasNext() bool {
	if s.pending == nil && !s.done {
		loc, err := s.search()
		switch {
		case err != nil:
			s.err = err
			s.done = true
		case loc != nil:
			m := s.record(loc)
			s.pending = &m
		default:
			s.done = true
		}
	}
	return s.pending != nil
}

// Err returns the error that ended the sequence early, if any.
func (s *Sequence) Err() error { return s.err }

// Next consumes and returns the next match. Calling Next on an exhausted
// sequence returns ErrNoMoreMatches.
func (s *Sequence) Next() (Match, error) {
	if !s.HasNext() {
		return Match{}, ErrNoMoreMatches
	}
	m := *s.pending
	s.pending = nil
	return m, nil
}

// Collect drains the remaining matches in discovery order.
func (s *Sequence) Collect() []Match {
	var out []Match
	for s.HasNext() {
		m, _ := s.Next()
		out = append(out, m)
	}
	return out
}

func (s *Sequence) search() ([]int, error) {
	if s.pattern.stepwise {
		return s.step()
	}
	if !s.fetched {
		s.locs = s.pattern.findAll(s.text)
		s.fetched = true
	}
	if s.cursor >= len(s.locs) {
		return nil, nil
	}
	loc := s.locs[s.cursor]
	s.cursor++
	return loc, nil
}

// step resumes the search at pos. An empty match abutting the previous match
// is skipped and an empty match always advances pos by one rune, so the
// results equal Go's own find-all for either engine.
func (s *Sequence) step() ([]int, error) {
	end := len(s.text)
	for s.pos <= end {
		loc, err := s.pattern.searchFrom(s.text, s.pos)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			s.pos = end + 1
			return nil, nil
		}
		accept := true
		if loc[1] == s.pos {
			if loc[0] == s.prevMatchEnd {
				accept = false
			}
			if s.pos < end {
				_, width := utf8.DecodeRuneInString(s.text[s.pos:])
				s.pos += width
			} else {
				s.pos = end + 1
			}
		} else {
			s.pos = loc[1]
		}
		s.prevMatchEnd = loc[1]
		if accept {
			return loc, nil
		}
	}
	return nil, nil
}

func (s *Sequence) record(loc []int) Match {
	m := Match{Start: loc[0], End: loc[1], Text: s.text[loc[0]:loc[1]]}
	if n := len(loc)/2 - 1; n > 0 {
		m.Groups = make([]string, n)
		for i := 0; i < n; i++ {
			a, b := loc[2*i+2], loc[2*i+3]
			if a >= 0 && b >= 0 {
				m.Groups[i] = s.text[a:b]
			}
		}
	}
	return m
}
