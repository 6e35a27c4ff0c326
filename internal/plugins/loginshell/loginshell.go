package loginshellplugin

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

type loginShellPlugin struct {
	host system.Host
	user system.User
}

// New creates the login shell plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &loginShellPlugin{host: deps.Host, user: deps.User}
}

var _ plugin.Plugin = (*loginShellPlugin)(nil)

func (p *loginShellPlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeLoginShell,
		Version:     "1.0.0",
		Description: "Sets the invoking user's login shell.",
		Privileged:  true,
	}
}

func (p *loginShellPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.LoginShell
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("login_shell configuration missing"))
	}

	current, err := p.host.LoginShell(ctx, p.user.Name)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}
	if current == cfg.Shell {
		return &model.EvaluationResult{StepID: step.ID, Message: "login shell is " + current}, nil
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        fmt.Sprintf("login shell is %s, want %s", current, cfg.Shell),
		Diff:           system.Render(p.command(cfg.Shell).Argv()),
	}, nil
}

func (p *loginShellPlugin) Apply(ctx context.Context, _ *model.EvaluationResult, step *config.Step) error {
	cfg := step.LoginShell
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("login_shell configuration missing"))
	}
	if err := p.host.Run(ctx, p.command(cfg.Shell)); err != nil {
		return plugin.NewExecutionError(step.ID, err)
	}
	return nil
}

func (p *loginShellPlugin) command(shell string) system.Command {
	return system.Command{Name: "chsh", Args: []string{"-s", shell, p.user.Name}, Privileged: true}
}
