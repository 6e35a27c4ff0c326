package firewallplugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

type firewallPlugin struct {
	host system.Host
}

// New creates the ufw plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &firewallPlugin{host: deps.Host}
}

var _ plugin.Plugin = (*firewallPlugin)(nil)

func (p *firewallPlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeFirewall,
		Version:     "1.0.0",
		Description: "Allows ufw application profiles and enables the firewall.",
		Privileged:  true,
	}
}

func (p *firewallPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Firewall
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("firewall configuration missing"))
	}

	active, err := p.host.FirewallActive(ctx)
	if err != nil {
		return nil, plugin.NewStateError(step.ID, err)
	}

	missing := cfg.Allow
	if active {
		status, err := p.host.Output(ctx, system.Command{Name: "ufw", Args: []string{"status"}, Privileged: true})
		if err != nil {
			return nil, plugin.NewStateError(step.ID, fmt.Errorf("list firewall rules: %w", err))
		}
		missing = missingRules(status, cfg.Allow)
		if len(missing) == 0 {
			return &model.EvaluationResult{
				StepID:  step.ID,
				Message: fmt.Sprintf("firewall active, allowing %s", strings.Join(cfg.Allow, ", ")),
			}, nil
		}
	}

	msg := "firewall inactive"
	if active {
		msg = "firewall rules missing: " + strings.Join(missing, ", ")
	}
	var diff strings.Builder
	for _, cmd := range commands(missing, !active) {
		diff.WriteString(system.Render(cmd.Argv()))
		diff.WriteByte('\n')
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        msg,
		Diff:           strings.TrimSuffix(diff.String(), "\n"),
		InternalData:   pending{rules: missing, enable: !active},
	}, nil
}

func (p *firewallPlugin) Apply(ctx context.Context, eval *model.EvaluationResult, step *config.Step) error {
	cfg := step.Firewall
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("firewall configuration missing"))
	}

	work := pending{rules: cfg.Allow, enable: true}
	if eval != nil {
		if found, ok := eval.InternalData.(pending); ok {
			work = found
		}
	}
	for _, cmd := range commands(work.rules, work.enable) {
		if err := p.host.Run(ctx, cmd); err != nil {
			return plugin.NewExecutionError(step.ID, err)
		}
	}
	return nil
}

// pending is the work a probe found: rules to allow, and whether the
// firewall still has to be switched on.
type pending struct {
	rules  []string
	enable bool
}

// commands allows each rule before enabling, so enabling over SSH never
// locks the session out. An active firewall is never re-enabled.
func commands(rules []string, enable bool) []system.Command {
	cmds := make([]system.Command, 0, len(rules)+1)
	for _, rule := range rules {
		cmds = append(cmds, system.Command{Name: "ufw", Args: []string{"allow", rule}, Privileged: true})
	}
	if enable {
		cmds = append(cmds, system.Command{Name: "ufw", Args: []string{"--force", "enable"}, Privileged: true})
	}
	return cmds
}

func missingRules(status string, allow []string) []string {
	var missing []string
	for _, rule := range allow {
		if !listed(status, rule) {
			missing = append(missing, rule)
		}
	}
	return missing
}

func listed(status, rule string) bool {
	for _, line := range strings.Split(status, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, rule+" ")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "ALLOW") || strings.HasPrefix(rest, "(v6)") {
			return true
		}
	}
	return false
}
