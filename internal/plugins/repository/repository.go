package repositoryplugin

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/devstrap/internal/aptrepo"
	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
)

type repositoryPlugin struct {
	registrar *aptrepo.Registrar
}

// New creates the apt repository plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &repositoryPlugin{registrar: deps.Registrar}
}

var _ plugin.Plugin = (*repositoryPlugin)(nil)

func (p *repositoryPlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeRepository,
		Version:     "1.0.0",
		Description: "Registers a signed third-party apt repository.",
		Privileged:  true,
	}
}

func source(cfg *config.RepositoryStep) aptrepo.Source {
	return aptrepo.Source{
		KeyURL:   cfg.KeyURL,
		Keyring:  cfg.Keyring,
		ListFile: cfg.ListFile,
		Entry:    cfg.Entry,
		Suite:    cfg.Suite,
	}
}

// Evaluate renders the entry before anything else, so a host whose codename
// cannot be determined fails here with a DetectionError.
func (p *repositoryPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Repository
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("repository configuration missing"))
	}
	src := source(cfg)

	registered, err := p.registrar.Registered(ctx, src)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}
	if registered {
		return &model.EvaluationResult{
			StepID:  step.ID,
			Message: fmt.Sprintf("repository registered in %s", cfg.ListFile),
		}, nil
	}

	diff, err := p.registrar.Preview(ctx, src)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        fmt.Sprintf("repository not registered: %s", cfg.ListFile),
		Diff:           diff,
	}, nil
}

func (p *repositoryPlugin) Apply(ctx context.Context, _ *model.EvaluationResult, step *config.Step) error {
	cfg := step.Repository
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("repository configuration missing"))
	}
	if err := p.registrar.Register(ctx, source(cfg)); err != nil {
		return plugin.NewExecutionError(step.ID, err)
	}
	return nil
}
