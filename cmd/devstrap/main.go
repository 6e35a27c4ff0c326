package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/devstrap/internal/report"
)

func main() {
	root := newRootCmd(systemEnvironment)
	if err := root.Execute(); err != nil {
		report.New(os.Stdout, os.Stderr, report.WithColor(errorColor(root, os.Stderr, report.IsTerminal))).Die(err)
	}
}

// errorColor decides whether the fatal message written to errOut is colored.
// Die writes to stderr, so that is the stream whose terminal state counts.
func errorColor(root *cobra.Command, errOut io.Writer, isTerminal func(io.Writer) bool) bool {
	if noColor, err := root.PersistentFlags().GetBool("no-color"); err == nil && noColor {
		return false
	}
	return isTerminal(errOut)
}
