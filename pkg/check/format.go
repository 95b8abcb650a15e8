package check

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placeholder keys available to issue templates.
const (
	KeyMatch = "MATCH"
	KeyRegex = "REGEX"
)

// Default message templates.
const (
	DefaultIssueMessage           = `Text "${MATCH}" matches given regular expression "${REGEX}"`
	DefaultInvertModeIssueMessage = `File do not contain requested text, that should match given regular expression "${REGEX}"`
)

var placeholder = MustCompile(`\$\{([^}]+)\}`, DialectRE2)

// Formatter resolves ${NAME} placeholders of one template. Keys are matched
// case-insensitively; unknown keys resolve to the empty string.
//
// A Formatter accumulates values and is not safe for concurrent use. Build a
// fresh one for every message.
type Formatter struct {
	template string
	values   map[string]string
}

// NewFormatter returns a formatter for template with no values set.
func NewFormatter(template string) *Formatter {
	return &Formatter{template: template, values: make(map[string]string)}
}

// SetValue stores the string form of value under key.
func (f *Formatter) SetValue(key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		return ErrNilValue
	}
	f.values[normalizeKey(key)] = fmt.Sprint(value)
	return nil
}

// Format renders the template. Substituted values are not scanned for
// further placeholders.
func (f *Formatter) Format() string {
	seq := NewSequence(placeholder, f.template)
	if !seq.HasNext() {
		return f.template
	}
	var sb strings.Builder
	last := 0
	for seq.HasNext() {
		m, _ := seq.Next()
		sb.WriteString(f.template[last:m.Start])
		sb.WriteString(f.values[normalizeKey(m.Groups[0])])
		last = m.End
	}
	sb.WriteString(f.template[last:])
	return sb.String()
}

// Format renders template against values in one call. An entry with an empty
// key or a nil value fails the call with ErrEmptyKey or ErrNilValue.
func Format(template string, values map[string]any) (string, error) {
	f := NewFormatter(template)
	var errs []error
	for k, v := range values {
		if err := f.SetValue(k, v); err != nil {
			errs = append(errs, fmt.Errorf("value %q: %w", k, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return "", err
	}
	return f.Format(), nil
}

func normalizeKey(key string) string {
	return cases.Upper(language.Und).String(key)
}
