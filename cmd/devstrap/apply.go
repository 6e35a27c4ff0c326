package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/devstrap/internal/engine"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/validation"
)

func newApplyCmd(flags *rootFlags, envFactory environmentFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Provision the workstation (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, flags, envFactory)
		},
	}
}

// stdin is swapped in tests.
var stdin any = os.Stdin

func runApply(cmd *cobra.Command, flags *rootFlags, envFactory environmentFactory) error {
	app, err := newAppContext(cmd, flags, envFactory)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !isTerminal(stdin) {
		app.log.Warn("stdin is not a terminal; sudo cannot prompt for a password")
	}

	rep := app.reporter
	if app.dryRun {
		rep.Info("Dry run of %q: probing %d steps, nothing will be changed", app.cfg.Name, len(app.plan.Steps))
	} else {
		rep.Info("Provisioning %q: %d steps", app.cfg.Name, len(app.plan.Steps))
	}

	session := &engine.Session{
		RunID:    app.runID,
		Guard:    app.env.Guard,
		Executor: engine.NewExecutor(app.log, engine.WithDryRun(app.dryRun), engine.WithObserver(rep.Step)),
		Log:      app.log,
		OnSummary: func(run *model.RunResult) {
			if !run.DryRun {
				results, _ := validation.NewChecker(app.env.Host, app.env.User).Run(app.cfg.Validations)
				rep.Validations(results)
			}
			rep.Summary(run, app.cfg.Settings.Followups)
		},
	}

	run, err := session.Run(ctx, app.plan)
	if err != nil {
		return err
	}
	if run.Aborted() {
		if len(run.Steps) > 0 {
			rep.Summary(run, nil)
		}
		return run.Fatal
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
