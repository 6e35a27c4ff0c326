package profileplugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/profile"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

type profilePlugin struct {
	editor *profile.Editor
	user   system.User
}

// New creates the shell profile plugin.
func New(deps plugin.Deps) plugin.Plugin {
	return &profilePlugin{editor: deps.Profiles, user: deps.User}
}

var _ plugin.Plugin = (*profilePlugin)(nil)

func (p *profilePlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        config.TypeProfile,
		Version:     "1.0.0",
		Description: "Appends sentinel-marked blocks to shell startup files.",
	}
}

// Evaluate checks every target independently; only targets lacking the
// sentinel are carried to Apply.
func (p *profilePlugin) Evaluate(_ context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg := step.Profile
	if cfg == nil {
		return nil, plugin.NewValidationError(step.ID, fmt.Errorf("profile configuration missing"))
	}

	var pending []string
	var diffs []string
	for _, target := range cfg.Targets {
		path := p.user.Expand(target)
		present, err := p.editor.Present(path, cfg.Sentinel)
		if err != nil {
			return nil, plugin.NewStateError(step.ID, err)
		}
		if present {
			continue
		}
		pending = append(pending, path)
		preview, err := p.editor.Preview(path, cfg.Sentinel, cfg.Content)
		if err != nil {
			return nil, plugin.NewStateError(step.ID, err)
		}
		diffs = append(diffs, preview)
	}

	if len(pending) == 0 {
		return &model.EvaluationResult{
			StepID:  step.ID,
			Message: fmt.Sprintf("%s present in %s", cfg.Sentinel, strings.Join(cfg.Targets, ", ")),
		}, nil
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        fmt.Sprintf("%s missing from %s", cfg.Sentinel, strings.Join(pending, ", ")),
		Diff:           strings.Join(diffs, ""),
		InternalData:   pending,
	}, nil
}

func (p *profilePlugin) Apply(_ context.Context, eval *model.EvaluationResult, step *config.Step) error {
	cfg := step.Profile
	if cfg == nil {
		return plugin.NewValidationError(step.ID, fmt.Errorf("profile configuration missing"))
	}

	var targets []string
	if eval != nil {
		targets, _ = eval.InternalData.([]string)
	}
	if targets == nil {
		for _, target := range cfg.Targets {
			targets = append(targets, p.user.Expand(target))
		}
	}

	// Ensure re-checks the sentinel, so a target patched since Evaluate is
	// left alone.
	for _, path := range targets {
		if _, err := p.editor.Ensure(path, cfg.Sentinel, cfg.Content); err != nil {
			return plugin.NewExecutionError(step.ID, err)
		}
	}
	return nil
}
