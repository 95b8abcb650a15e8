package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PhucNguyen204/regexcheck/internal/analysis"
	"github.com/PhucNguyen204/regexcheck/pkg/check"
	"github.com/PhucNguyen204/regexcheck/pkg/rules"
)

type evalCmd struct {
	cobra.Command
	root          *rootCmd
	invert        bool
	dialect       string
	message       string
	invertMessage string
	charset       string
	format        string
}

func newEvalCmd(root *rootCmd) *evalCmd {
	c := &evalCmd{
		Command: cobra.Command{
			Use:   "eval [flags] <pattern> [file]...",
			Short: "Evaluate one pattern against files or stdin",
			Args:  cobra.MinimumNArgs(1),
		},
		root: root,
	}
	c.RunE = c.run
	fs := c.Flags()
	fs.BoolVarP(&c.invert, "invert", "v", false, "Report files that do not match instead of matches")
	fs.StringVarP(&c.dialect, "dialect", "d", "re2", "Regular expression dialect: re2 or pcre")
	fs.StringVarP(&c.message, "message", "m", "", "Issue message template")
	fs.StringVar(&c.invertMessage, "invert-message", "", "Invert mode issue message template")
	fs.StringVar(&c.charset, "charset", "utf-8", "Charset of the input")
	fs.StringVarP(&c.format, "format", "f", "text", "Output format: text or json")
	return c
}

func (c *evalCmd) run(cmd *cobra.Command, args []string) error {
	dialect, err := check.ParseDialect(c.dialect)
	if err != nil {
		return err
	}
	rule := rules.Rule{
		Key:      "eval",
		Name:     "eval",
		Severity: rules.SimpleCheckTemplate.Severity,
		Check: check.Check{
			Pattern:                args[0],
			InvertMode:             c.invert,
			IssueMessage:           c.message,
			InvertModeIssueMessage: c.invertMessage,
			Dialect:                dialect,
		},
	}
	rs, err := rules.NewRuleset(rule)
	if err != nil {
		return err
	}
	an, err := analysis.New(rs, analysis.DevelopmentConfig().WithCharset(c.charset))
	if err != nil {
		return err
	}

	var (
		issues []analysis.Issue
		failed []analysis.Failure
	)
	if len(args) == 1 {
		issues, err = an.AnalyzeReader("stdin", cmd.InOrStdin())
		if err != nil && !check.IsMatchError(err) {
			return err
		}
		if err != nil {
			failed = []analysis.Failure{{Source: "stdin", Error: err.Error()}}
		}
	} else {
		rep, err := an.AnalyzePaths(cmd.Context(), args[1:]...)
		if err != nil {
			return err
		}
		issues, failed = rep.Issues, rep.Failed
	}

	switch c.format {
	case "text":
		writeTextIssues(c.root.out, issues)
		writeTextFailures(cmd.ErrOrStderr(), failed)
	case "json":
		if issues == nil {
			issues = []analysis.Issue{}
		}
		if err := writeJSONReport(c.root.out, issues); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", c.format)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%s: %w", failed[0].Error, errSearchFailed)
	}
	if len(issues) > 0 {
		return errFindings
	}
	return nil
}
