package packageplugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

type packagePlugin struct {
	host system.Host
}

// New creates the apt package plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &packagePlugin{host: deps.Host}
}

var _ plugin.Plugin = (*packagePlugin)(nil)

func (p *packagePlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypePackages,
		Version:     "1.0.0",
		Description: "Installs system packages with apt.",
		Privileged:  true,
	}
}

// Evaluation data for package operations
type packageEvaluationData struct {
	Missing []string
}

func (p *packagePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Packages
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("packages configuration missing"))
	}

	var missing []string
	for _, name := range cfg.Packages {
		installed, err := p.host.PackageInstalled(ctx, name)
		if err != nil {
			return nil, plugin.NewStateError(step.ID, err)
		}
		if !installed {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return &model.EvaluationResult{
			StepID:  step.ID,
			Message: fmt.Sprintf("all packages installed: %s", strings.Join(cfg.Packages, ", ")),
		}, nil
	}

	diff := "apt-get install -y " + strings.Join(missing, " ")
	if cfg.Update {
		diff = "apt-get update\n" + diff
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        fmt.Sprintf("packages not installed: %s", strings.Join(missing, ", ")),
		Diff:           diff,
		InternalData:   &packageEvaluationData{Missing: missing},
	}, nil
}

func (p *packagePlugin) Apply(ctx context.Context, eval *model.EvaluationResult, step *config.Step) error {
	cfg := step.Packages
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("packages configuration missing"))
	}

	missing := cfg.Packages
	if eval != nil {
		if data, ok := eval.InternalData.(*packageEvaluationData); ok && len(data.Missing) > 0 {
			missing = data.Missing
		}
	}

	if cfg.Update {
		if err := p.host.UpdatePackageIndex(ctx); err != nil {
			return plugin.NewExecutionError(step.ID, err)
		}
	}
	if err := p.host.InstallPackages(ctx, missing...); err != nil {
		return plugin.NewExecutionError(step.ID, err)
	}
	return nil
}
