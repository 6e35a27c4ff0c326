package sshkeyplugin

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/sshkey"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

type sshKeyPlugin struct {
	keys *sshkey.Manager
	user system.User
}

// New creates the SSH key plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &sshKeyPlugin{keys: deps.Keys, user: deps.User}
}

var _ plugin.Plugin = (*sshKeyPlugin)(nil)

func (p *sshKeyPlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeSSHKey,
		Version:     "1.0.0",
		Description: "Generates an ed25519 key pair unless one exists.",
	}
}

func (p *sshKeyPlugin) Evaluate(_ context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.SSHKey
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("ssh_key configuration missing"))
	}

	path := p.user.Expand(cfg.Path)
	if p.keys.Present(path) {
		return &model.EvaluationResult{StepID: step.ID, Message: "key pair present at " + path}, nil
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        "no key pair at " + path,
		Diff:           fmt.Sprintf("generate ed25519 key %s (%s)", path, p.comment(cfg)),
	}, nil
}

func (p *sshKeyPlugin) Apply(_ context.Context, _ *model.EvaluationResult, step *config.Step) error {
	cfg := step.SSHKey
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("ssh_key configuration missing"))
	}
	if err := p.keys.Ensure(p.user.Expand(cfg.Path), p.comment(cfg)); err != nil {
		return plugin.NewExecutionError(step.ID, err)
	}
	return nil
}

func (p *sshKeyPlugin) comment(cfg *config.SSHKeyStep) string {
	if cfg.Comment != "" {
		return cfg.Comment
	}
	return p.user.Name + "@devstrap"
}
