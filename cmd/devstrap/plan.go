package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlanCmd(flags *rootFlags, envFactory environmentFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the steps in execution order with their prerequisites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, flags, envFactory)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s", app.cfg.Name, app.plan.String())
			return nil
		},
	}
}
