package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PhucNguyen204/regexcheck/pkg/rules"
)

type rulesCmd struct {
	cobra.Command
	root      *rootCmd
	rulesPath string
	format    string
}

func newRulesCmd(root *rootCmd) *rulesCmd {
	c := &rulesCmd{
		Command: cobra.Command{
			Use:   "rules",
			Short: "List the rule template, or the rules of a rules directory",
			Args:  cobra.NoArgs,
		},
		root: root,
	}
	c.RunE = c.run
	c.Flags().StringVarP(&c.rulesPath, "rules", "r", "", "Rule file or directory to list")
	c.Flags().StringVarP(&c.format, "format", "f", "text", "Output format: text or json")
	return c
}

func (c *rulesCmd) run(cmd *cobra.Command, _ []string) error {
	var list []rules.Rule
	if c.rulesPath != "" {
		rs, err := loadRuleset(c.rulesPath)
		if err != nil {
			return err
		}
		list = rs.Rules()
	}
	w := c.root.out
	switch c.format {
	case "json":
		return writeJSONReport(w, map[string]any{
			"repository": rules.Repository,
			"template":   rules.SimpleCheckTemplate,
			"rules":      list,
		})
	case "text":
	default:
		return fmt.Errorf("unknown format %q", c.format)
	}
	t := rules.SimpleCheckTemplate
	fmt.Fprintf(w, "%s (%s)\n", rules.Repository.Name, rules.Repository.Key)
	fmt.Fprintf(w, "  template %s: %s [%s] tags=%s\n", t.Key, t.Name, t.Severity, strings.Join(t.Tags, ","))
	for _, r := range list {
		mode := "match"
		if r.InvertMode {
			mode = "invert"
		}
		fmt.Fprintf(w, "  %s: %s [%s] %s %s /%s/\n", r.Key, r.Name, r.Severity, mode, r.Dialect, r.Pattern)
	}
	return nil
}
