package check

import (
	"errors"
	"fmt"
	"strings"
)

// EmptyPatternMessage is reported when a rule carries no regular expression.
const EmptyPatternMessage = "Regular expression given must not be empty!"

var (
	// ErrNoMoreMatches is returned by Sequence.Next once the sequence is exhausted.
	ErrNoMoreMatches = errors.New("check: no more matches in sequence")
	// ErrEmptyKey is returned by Formatter.SetValue for an empty key.
	ErrEmptyKey = errors.New("check: formatter key must not be empty")
	// ErrNilValue is returned by Formatter.SetValue for a nil value.
	ErrNilValue = errors.New("check: formatter value must not be nil")
)

// ConfigurationError means the rule itself is misconfigured (empty pattern,
// unknown dialect). It is never retried.
type ConfigurationError struct {
	Pattern string
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// PatternSyntaxError means the pattern does not compile. Index is the
// byte position of the problem within Pattern, or -1 when the engine does not
// report one.
type PatternSyntaxError struct {
	Pattern     string
	Index       int
	Description string
	Err         error
}

func (e *PatternSyntaxError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Description)
	if e.Index >= 0 {
		fmt.Fprintf(&sb, " near index %d", e.Index)
	}
	sb.WriteByte('\n')
	sb.WriteString(e.Pattern)
	return sb.String()
}

func (e *PatternSyntaxError) Unwrap() error { return e.Err }

// MatchError means the engine gave up while searching, typically because a
// backtracking limit was exceeded. The text may or may not match.
type MatchError struct {
	Pattern string
	Message string
}

func (e *MatchError) Error() string {
	if e.Pattern == "" {
		return "match failed: " + e.Message
	}
	return fmt.Sprintf("match failed for %q: %s", e.Pattern, e.Message)
}

// IsMatchError reports whether err (or anything it wraps) is a *MatchError.
func IsMatchError(err error) bool {
	var me *MatchError
	return errors.As(err, &me)
}

// EvaluationError wraps every failure that aborts an evaluation so callers can
// tell "bad rule configuration" apart from "the text did not match". The
// message of the cause is preserved verbatim.
type EvaluationError struct {
	Pattern string
	Err     error
}

func (e *EvaluationError) Error() string { return e.Err.Error() }

func (e *EvaluationError) Unwrap() error { return e.Err }

// IsEvaluationError reports whether err (or anything it wraps) is an *EvaluationError.
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

func wrapEvaluation(pattern string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return err
	}
	return &EvaluationError{Pattern: pattern, Err: err}
}
