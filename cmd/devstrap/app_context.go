package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/devstrap/internal/aptrepo"
	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/engine"
	"github.com/alexisbeaulieu97/devstrap/internal/installer"
	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/plugins"
	"github.com/alexisbeaulieu97/devstrap/internal/profile"
	"github.com/alexisbeaulieu97/devstrap/internal/report"
	"github.com/alexisbeaulieu97/devstrap/internal/sshkey"
)

// appContext is the wiring shared by apply, verify and plan.
type appContext struct {
	runID    string
	cfg      *config.Config
	dryRun   bool
	log      *logger.Logger
	reporter *report.Reporter
	env      *environment
	plan     *engine.Plan
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.ParseConfig(path)
}

func newAppContext(cmd *cobra.Command, flags *rootFlags, envFactory environmentFactory) (*appContext, error) {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	color := !flags.noColor && report.IsTerminal(stdout)

	level := "info"
	if flags.verbose || cfg.Settings.Verbose {
		level = "debug"
	}
	runID := uuid.NewString()
	dryRun := flags.dryRun || cfg.Settings.DryRun
	base, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: true,
		NoColor:       flags.noColor || !isTerminal(stderr),
		Writer:        stderr,
	})
	if err != nil {
		return nil, err
	}
	log := base.WithRun(runID, dryRun)

	env, err := envFactory(log, stdout, stderr)
	if err != nil {
		return nil, err
	}

	deps := plugin.Deps{
		Host:      env.Host,
		User:      env.User,
		Log:       log,
		Registrar: aptrepo.NewRegistrar(env.Host, env.Fetcher, cfg.Settings.OSReleasePath(), log),
		Profiles:  profile.NewEditor(env.Host),
		Keys:      sshkey.NewManager(env.Host),
		Installers: installer.Set{
			"script": installer.NewScriptInstaller(env.Fetcher, env.Host, log),
			"git":    env.Git,
		},
	}
	registry, err := plugins.NewRegistry(deps)
	if err != nil {
		return nil, err
	}

	plan, err := engine.BuildPlan(cfg.Steps, registry)
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]any{"config": cfg.Name, "steps": len(plan.Steps)}).Debug("plan built")

	return &appContext{
		runID:    runID,
		cfg:      cfg,
		dryRun:   dryRun,
		log:      log,
		reporter: report.New(stdout, stderr, report.WithColor(color)),
		env:      env,
		plan:     plan,
	}, nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
