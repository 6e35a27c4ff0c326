package serviceplugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

type servicePlugin struct {
	host system.Host
}

// New creates the systemd service plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &servicePlugin{host: deps.Host}
}

var _ plugin.Plugin = (*servicePlugin)(nil)

func (p *servicePlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeService,
		Version:     "1.0.0",
		Description: "Enables and starts systemd units.",
		Privileged:  true,
	}
}

func (p *servicePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Service
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("service configuration missing"))
	}

	var pending []string
	var detail []string
	for _, name := range cfg.Services {
		status, err := p.host.ServiceState(ctx, name)
		if err != nil {
			return nil, plugin.NewStateError(step.ID, fmt.Errorf("query %s: %w", name, err))
		}
		if status.Enabled && status.Active {
			continue
		}
		pending = append(pending, name)
		detail = append(detail, fmt.Sprintf("%s (%s)", name, describe(status)))
	}

	if len(pending) == 0 {
		return &model.EvaluationResult{
			StepID:  step.ID,
			Message: fmt.Sprintf("services enabled and running: %s", strings.Join(cfg.Services, ", ")),
		}, nil
	}

	var diff strings.Builder
	for _, name := range pending {
		fmt.Fprintf(&diff, "systemctl enable --now %s\n", name)
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        "services not running: " + strings.Join(detail, ", "),
		Diff:           strings.TrimSuffix(diff.String(), "\n"),
		InternalData:   pending,
	}, nil
}

func (p *servicePlugin) Apply(ctx context.Context, eval *model.EvaluationResult, step *config.Step) error {
	cfg := step.Service
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("service configuration missing"))
	}

	pending := cfg.Services
	if eval != nil {
		if names, ok := eval.InternalData.([]string); ok {
			pending = names
		}
	}
	for _, name := range pending {
		if err := p.host.EnableService(ctx, name); err != nil {
			return plugin.NewExecutionError(step.ID, err)
		}
	}
	return nil
}

func describe(status system.ServiceStatus) string {
	switch {
	case !status.Enabled && !status.Active:
		return "disabled, stopped"
	case !status.Enabled:
		return "disabled"
	default:
		return "stopped"
	}
}
