// A command line tool to check files against regular-expression rules
package main

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

// errFindings makes the process exit with status 1 when issues were found.
var errFindings = errors.New("findings reported")

// errSearchFailed reports that a rule could not finish searching some input.
var errSearchFailed = errors.New("search did not complete")

type rootCmd struct {
	cobra.Command
	out io.Writer
}

func newRootCmd(out io.Writer) *rootCmd {
	root := &rootCmd{
		Command: cobra.Command{
			Use:   "regexcheck",
			Short: "Check text files against regular-expression rules",
			Long: `Check text files against regular-expression rules.

A rule reports every match of its pattern, or in invert mode reports a file
that holds no match at all. Messages may use the placeholders ${MATCH} and
${REGEX}.`,
			SilenceUsage:  true,
			SilenceErrors: true,
		},
		out: out,
	}
	root.SetOut(out)
	root.AddCommand(&newScanCmd(root).Command)
	root.AddCommand(&newEvalCmd(root).Command)
	root.AddCommand(&newRulesCmd(root).Command)
	return root
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("regexcheck: ")
	root := newRootCmd(os.Stdout)
	switch err := root.Execute(); {
	case err == nil:
	case errors.Is(err, errFindings):
		os.Exit(1)
	default:
		log.Printf("%v", err)
		os.Exit(2)
	}
}
