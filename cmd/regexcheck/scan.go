package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/PhucNguyen204/regexcheck/internal/analysis"
	"github.com/PhucNguyen204/regexcheck/pkg/rules"
)

type scanCmd struct {
	cobra.Command
	root      *rootCmd
	rulesPath string
	charset   string
	workers   int
	format    string
	noFilter  bool
	maxBytes  int64
	byRule    bool
}

func newScanCmd(root *rootCmd) *scanCmd {
	c := &scanCmd{
		Command: cobra.Command{
			Use:   "scan [flags] <path>...",
			Short: "Check files and directories against a rules directory",
			Args:  cobra.MinimumNArgs(1),
		},
		root: root,
	}
	c.RunE = c.run
	def := analysis.DefaultConfig()
	fs := c.Flags()
	fs.StringVarP(&c.rulesPath, "rules", "r", "", "Rule file or directory of .yml/.yaml rule files")
	c.MarkFlagRequired("rules")
	fs.StringVar(&c.charset, "charset", def.Charset, "Charset of the scanned files")
	fs.IntVarP(&c.workers, "workers", "w", def.Workers, "Number of files analysed concurrently")
	fs.StringVarP(&c.format, "format", "f", "text", "Output format: text or json")
	fs.BoolVar(&c.noFilter, "no-prefilter", false, "Evaluate every rule on every file")
	fs.Int64Var(&c.maxBytes, "max-bytes", def.MaxFileBytes, "Skip files larger than this (0 = no limit)")
	fs.BoolVar(&c.byRule, "by-rule", false, "Order issues by rule instead of by file")
	return c
}

func (c *scanCmd) run(cmd *cobra.Command, paths []string) error {
	if c.format != "text" && c.format != "json" {
		return fmt.Errorf("unknown format %q", c.format)
	}
	rs, err := loadRuleset(c.rulesPath)
	if err != nil {
		return err
	}
	cfg := analysis.DefaultConfig().
		WithCharset(c.charset).
		WithWorkers(c.workers).
		WithPrefilter(!c.noFilter).
		WithMaxFileBytes(c.maxBytes)
	if c.byRule {
		cfg = cfg.WithOrder(analysis.OrderByRule)
	}
	an, err := analysis.New(rs, cfg)
	if err != nil {
		return err
	}
	rep, err := an.AnalyzePaths(cmd.Context(), paths...)
	if err != nil {
		return err
	}
	if c.format == "json" {
		err = writeJSONReport(c.root.out, rep)
	} else {
		writeTextIssues(c.root.out, rep.Issues)
		writeTextFailures(cmd.ErrOrStderr(), rep.Failed)
	}
	if err != nil {
		return err
	}
	if len(rep.Failed) > 0 {
		return fmt.Errorf("%d of %d files: %w", len(rep.Failed), rep.Files, errSearchFailed)
	}
	if len(rep.Issues) > 0 {
		return errFindings
	}
	return nil
}

func loadRuleset(path string) (*rules.Ruleset, error) {
	all, err := rules.LoadDirRecursive(path)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", path, rules.ErrNoRules)
	}
	log.Printf("loaded %d rules from %s", len(all), path)
	return rules.NewRuleset(all...)
}

func writeTextIssues(w io.Writer, issues []analysis.Issue) {
	for _, is := range issues {
		if is.Line != nil {
			fmt.Fprintf(w, "%s:%d:%d: [%s] %s: %s\n", is.Source, *is.Line, is.Column, is.Severity, is.RuleKey, is.Message)
		} else {
			fmt.Fprintf(w, "%s: [%s] %s: %s\n", is.Source, is.Severity, is.RuleKey, is.Message)
		}
	}
}

func writeTextFailures(w io.Writer, failed []analysis.Failure) {
	for _, f := range failed {
		fmt.Fprintf(w, "%s: not fully searched: %s\n", f.Source, f.Error)
	}
}

func writeJSONReport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
