package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/devstrap/internal/engine"
)

func newVerifyCmd(flags *rootFlags, envFactory environmentFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Probe every step without changing anything; fails when work remains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, flags, envFactory)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			if app.env.Guard != nil {
				if err := app.env.Guard.Check(ctx); err != nil {
					return err
				}
			}

			summary := engine.NewExecutor(app.log).Verify(ctx, app.plan)
			app.reporter.Verification(summary)
			if !summary.AllSatisfied() {
				return fmt.Errorf("%d of %d steps are not satisfied", summary.TotalSteps-summary.Satisfied, summary.TotalSteps)
			}
			return nil
		},
	}
}
