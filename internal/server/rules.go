package server

import (
	"context"
	"fmt"
	"log"

	"github.com/PhucNguyen204/regexcheck/internal/analysis"
	"github.com/PhucNguyen204/regexcheck/pkg/rules"
)

// LoadRulesFromDir loads every .yml/.yaml file under dir and swaps in an
// analyzer for them. Returns the number of rules loaded.
func (s *AppServer) LoadRulesFromDir(ctx context.Context, dir string) (int, error) {
	all, err := rules.LoadDirRecursive(dir)
	if err != nil {
		return 0, fmt.Errorf("load rules: %w", err)
	}
	return s.ReplaceRules(ctx, all)
}

// ReplaceRules validates and compiles rs, records their metadata and swaps
// the analyzer. The previous analyzer keeps serving on any error.
func (s *AppServer) ReplaceRules(ctx context.Context, rs []rules.Rule) (int, error) {
	set, err := rules.NewRuleset(rs...)
	if err != nil {
		return 0, err
	}
	an, err := analysis.New(set, s.currentAnalyzer().Config())
	if err != nil {
		return 0, err
	}
	if err := s.UpsertRules(ctx, set); err != nil {
		return 0, fmt.Errorf("upsert rules: %w", err)
	}
	s.swapAnalyzer(an)
	log.Printf("rules loaded: rules=%d", set.Len())
	return set.Len(), nil
}

// UpsertRules writes or updates rule metadata into the rules table.
func (s *AppServer) UpsertRules(ctx context.Context, rs *rules.Ruleset) error {
	if s.db == nil {
		return nil
	}
	for _, r := range rs.Rules() {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO rules(rule_key, name, severity, description, pattern, invert_mode, dialect)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (rule_key) DO UPDATE SET name=EXCLUDED.name, severity=EXCLUDED.severity, description=EXCLUDED.description, pattern=EXCLUDED.pattern, invert_mode=EXCLUDED.invert_mode, dialect=EXCLUDED.dialect`,
			r.Key, r.Name, string(r.Severity), r.Description, r.Pattern, r.InvertMode, r.Dialect.String(),
		); err != nil {
			return err
		}
	}
	return nil
}
