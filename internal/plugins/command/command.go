package commandplugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/plugins/guard"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

const defaultShell = "bash"

type commandPlugin struct {
	host system.Host
	user system.User
}

// New creates the shell command plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &commandPlugin{host: deps.Host, user: deps.User}
}

var _ plugin.Plugin = (*commandPlugin)(nil)

func (p *commandPlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeCommand,
		Version:     "1.0.0",
		Description: "Executes shell commands guarded by a check or created path.",
	}
}

func (p *commandPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Command
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("command configuration missing"))
	}

	g := guard.Guard{Creates: cfg.Creates, Check: cfg.Check, Env: cfg.Env}
	if !g.Configured() {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("command steps need a check or creates guard"))
	}
	ok, reason, err := g.Satisfied(ctx, p.host, p.user)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}
	if ok {
		return &model.EvaluationResult{StepID: step.ID, Message: "already done"}, nil
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        reason,
		Diff:           system.Render(p.command(cfg).Argv()),
	}, nil
}

func (p *commandPlugin) Apply(ctx context.Context, _ *model.EvaluationResult, step *config.Step) error {
	cfg := step.Command
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("command configuration missing"))
	}
	if err := p.host.Run(ctx, p.command(cfg)); err != nil {
		return plugin.NewExecutionError(step.ID, err)
	}
	return nil
}

func (p *commandPlugin) command(cfg *config.CommandStep) system.Command {
	shell := strings.TrimSpace(cfg.Shell)
	if shell == "" {
		shell = defaultShell
	}
	cmd := system.Command{
		Name:       shell,
		Args:       []string{"-c", cfg.Command},
		Env:        cfg.Env,
		Privileged: cfg.Privileged,
	}
	if cfg.WorkDir != "" {
		cmd.Dir = p.user.Expand(cfg.WorkDir)
	}
	return cmd
}
