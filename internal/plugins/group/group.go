package groupplugin

import (
	"context"
	"fmt"
	"slices"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

type groupPlugin struct {
	host system.Host
	user system.User
}

// New creates the supplementary group plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &groupPlugin{host: deps.Host, user: deps.User}
}

var _ plugin.Plugin = (*groupPlugin)(nil)

func (p *groupPlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeGroup,
		Version:     "1.0.0",
		Description: "Adds the invoking user to a supplementary group.",
		Privileged:  true,
	}
}

// Evaluate reads the group database rather than the process credentials,
// which only pick up new memberships after the next login.
func (p *groupPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Group
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("group configuration missing"))
	}

	groups, err := p.host.UserGroups(ctx, p.user.Name)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}
	if slices.Contains(groups, cfg.Group) {
		return &model.EvaluationResult{StepID: step.ID, Message: fmt.Sprintf("%s is in %s", p.user.Name, cfg.Group)}, nil
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s is not in %s", p.user.Name, cfg.Group),
		Diff:           system.Render(p.command(cfg.Group).Argv()),
	}, nil
}

func (p *groupPlugin) Apply(ctx context.Context, _ *model.EvaluationResult, step *config.Step) error {
	cfg := step.Group
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("group configuration missing"))
	}
	if err := p.host.Run(ctx, p.command(cfg.Group)); err != nil {
		return plugin.NewExecutionError(step.ID, err)
	}
	return nil
}

func (p *groupPlugin) command(group string) system.Command {
	return system.Command{Name: "usermod", Args: []string{"-aG", group, p.user.Name}, Privileged: true}
}
