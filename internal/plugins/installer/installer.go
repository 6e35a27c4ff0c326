package installerplugin

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/installer"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/plugins/guard"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

// cloneProber is implemented by installers that can tell whether their
// destination already holds a finished install.
type cloneProber interface {
	Cloned(dest string) bool
}

type installerPlugin struct {
	host       system.Host
	user       system.User
	installers installer.Set
}

// New creates the external installer plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &installerPlugin{host: deps.Host, user: deps.User, installers: deps.Installers}
}

var _ plugin.Plugin = (*installerPlugin)(nil)

func (p *installerPlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeInstaller,
		Version:     "1.0.0",
		Description: "Runs installer scripts and git-based installs.",
	}
}

func (p *installerPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Installer
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("installer configuration missing"))
	}
	in, err := p.installers.Lookup(cfg.Method)
	if err != nil {
		return nil, plugin.NewValidationError(step.ID, err)
	}
	spec := p.spec(cfg)

	if prober, ok := in.(cloneProber); ok && spec.Dest != "" && !prober.Cloned(spec.Dest) {
		return p.pending(step, in, spec, spec.Dest+" is not a checkout of "+spec.URL), nil
	}

	g := guard.Guard{Creates: cfg.Creates, Command: cfg.Command, Check: cfg.Check, Env: cfg.Env}
	if g.Configured() {
		ok, reason, err := g.Satisfied(ctx, p.host, p.user)
		if err != nil {
			return nil, plugin.NewStateError(step.ID, err)
		}
		if !ok {
			return p.pending(step, in, spec, reason), nil
		}
	} else if _, ok := in.(cloneProber); !ok {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("%s installers need one of creates, command or check", cfg.Method))
	}

	return &model.EvaluationResult{StepID: step.ID, Message: "installed from " + cfg.URL}, nil
}

func (p *installerPlugin) Apply(ctx context.Context, _ *model.EvaluationResult, step *config.Step) error {
	cfg := step.Installer
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("installer configuration missing"))
	}
	in, err := p.installers.Lookup(cfg.Method)
	if err != nil {
		return plugin.NewValidationError(step.ID, err)
	}
	if err := in.Install(ctx, p.spec(cfg)); err != nil {
		return plugin.NewExecutionError(step.ID, err)
	}
	return nil
}

func (p *installerPlugin) pending(step *config.Step, in installer.Installer, spec installer.Spec, reason string) *model.EvaluationResult {
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        reason,
		Diff:           in.Describe(spec),
	}
}

func (p *installerPlugin) spec(cfg *config.InstallerStep) installer.Spec {
	spec := installer.Spec{
		URL:   cfg.URL,
		Ref:   cfg.Ref,
		Depth: cfg.Depth,
		Shell: cfg.Shell,
		Args:  cfg.Args,
		Env:   cfg.Env,
	}
	if cfg.Dest != "" {
		spec.Dest = p.user.Expand(cfg.Dest)
	}
	return spec
}
