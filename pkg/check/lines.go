package check

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// LineIndex maps byte offsets of a text to 1-based line numbers. Only '\n'
// delimits lines; '\r' is ordinary text.
type LineIndex struct {
	text     string
	newlines []int // offsets of every '\n', ascending
}

// NewLineIndex scans text once for newline positions.
func NewLineIndex(text string) *LineIndex {
	idx := &LineIndex{text: text}
	for i := 0; i < len(text); {
		j := strings.IndexByte(text[i:], '\n')
		if j < 0 {
			break
		}
		idx.newlines = append(idx.newlines, i+j)
		i += j + 1
	}
	return idx
}

// Lines returns the number of lines in the text.
func (idx *LineIndex) Lines() int { return len(idx.newlines) + 1 }

// Line returns the line containing offset: the count of newlines strictly
// before offset, plus one. Offsets outside the text are clamped.
func (idx *LineIndex) Line(offset int) int {
	offset = idx.clamp(offset)
	return sort.SearchInts(idx.newlines, offset) + 1
}

// Column returns the 1-based rune column of offset within its line.
func (idx *LineIndex) Column(offset int) int {
	offset = idx.clamp(offset)
	start := 0
	if n := idx.Line(offset) - 1; n > 0 {
		start = idx.newlines[n-1] + 1
	}
	return utf8.RuneCountInString(idx.text[start:offset]) + 1
}

func (idx *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(idx.text) {
		return len(idx.text)
	}
	return offset
}

// LineOf is a one-shot Line lookup without building an index.
func LineOf(text string, offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
