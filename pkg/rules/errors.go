package rules

import "errors"

// Sentinel errors for rule loading and ruleset validation.
var (
	// ErrInvalidRule indicates malformed rule input.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrMissingKey indicates a rule without a key.
	ErrMissingKey = errors.New("rule key is required")
	// ErrDuplicateKey indicates two rules sharing a key.
	ErrDuplicateKey = errors.New("duplicate rule key")
	// ErrDuplicateName indicates two rules sharing a name.
	ErrDuplicateName = errors.New("duplicate rule name")
	// ErrNoRules indicates a rule document that holds no rule.
	ErrNoRules = errors.New("no rules in document")
)
