package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// PluginLookup resolves the plugin for a step type.
type PluginLookup interface {
	Get(stepType string) (plugin.Plugin, error)
}

// Step is one planned unit of work: the configured step bound to the plugin
// that probes and mutates it.
type Step struct {
	ID       string
	Name     string
	Type     string
	Requires []string
	Fatal    bool
	// Privileged is set when the step's mutator runs commands through sudo.
	Privileged bool

	Config *config.Step
	Plugin plugin.Plugin
}

// Probe evaluates whether the step's work is already done. It never mutates
// the host.
func (s *Step) Probe(ctx context.Context) (*model.EvaluationResult, error) {
	return s.Plugin.Evaluate(ctx, s.Config)
}

// Mutate performs the step's work.
func (s *Step) Mutate(ctx context.Context, eval *model.EvaluationResult) error {
	return s.Plugin.Apply(ctx, eval, s.Config)
}

// Plan is the ordered list of steps for a run.
type Plan struct {
	Steps []*Step
}

// BuildPlan binds every configured step to its plugin, preserving declared
// order. A prerequisite that is unknown, or declared after its dependent, is
// a PlanError.
func BuildPlan(steps []config.Step, plugins PluginLookup) (*Plan, error) {
	position := make(map[string]int, len(steps))
	for i, step := range steps {
		if _, dup := position[step.ID]; dup {
			return nil, devstraperrors.NewPlanError(step.ID, "duplicate step id")
		}
		position[step.ID] = i
	}

	plan := &Plan{Steps: make([]*Step, 0, len(steps))}
	for i := range steps {
		cfg := &steps[i]
		for _, req := range cfg.Requires {
			idx, ok := position[req]
			switch {
			case !ok:
				return nil, devstraperrors.NewPlanError(cfg.ID, fmt.Sprintf("requires unknown step %q", req))
			case idx == i:
				return nil, devstraperrors.NewPlanError(cfg.ID, "requires itself")
			case idx > i:
				return nil, devstraperrors.NewPlanError(cfg.ID, fmt.Sprintf("requires %q, which is declared later", req))
			}
		}

		impl, err := plugins.Get(cfg.Type)
		if err != nil {
			return nil, devstraperrors.NewPlanError(cfg.ID, err.Error())
		}

		privileged := impl.PluginMetadata().Privileged || (cfg.Command != nil && cfg.Command.Privileged)
		plan.Steps = append(plan.Steps, &Step{
			ID:         cfg.ID,
			Name:       cfg.DisplayName(),
			Type:       cfg.Type,
			Requires:   append([]string(nil), cfg.Requires...),
			Fatal:      cfg.Fatal,
			Privileged: privileged,
			Config:     cfg,
			Plugin:     impl,
		})
	}
	return plan, nil
}

// Lookup returns the planned step with the given id.
func (p *Plan) Lookup(id string) (*Step, bool) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// String renders a human readable summary of the plan.
func (p *Plan) String() string {
	if p == nil {
		return ""
	}

	var b strings.Builder
	for i, s := range p.Steps {
		kind := s.Type
		if s.Privileged {
			kind += ", sudo"
		}
		fmt.Fprintf(&b, "%2d. %s (%s)", i+1, s.ID, kind)
		if !s.Fatal {
			b.WriteString(" [non-fatal]")
		}
		if len(s.Requires) > 0 {
			fmt.Fprintf(&b, " after %s", strings.Join(s.Requires, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
