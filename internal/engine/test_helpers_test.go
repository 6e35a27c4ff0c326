package engine

import (
	"context"
	"errors"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
)

// fakePlugin treats every step as a unit of work that is done once applied.
type fakePlugin struct {
	done       map[string]bool
	probeErr   map[string]error
	applyErr   map[string]error
	probed     []string
	applied    []string
	onApply    func(id string)
	stepTypes  string
	privileged bool
}

func newFakePlugin() *fakePlugin {
	return &fakePlugin{
		done:      make(map[string]bool),
		probeErr:  make(map[string]error),
		applyErr:  make(map[string]error),
		stepTypes: config.TypeCommand,
	}
}

func (f *fakePlugin) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{Name: f.stepTypes, Version: "1.0.0", Description: "fake", Privileged: f.privileged}
}

func (f *fakePlugin) Evaluate(_ context.Context, step *config.Step) (*model.EvaluationResult, error) {
	f.probed = append(f.probed, step.ID)
	if err := f.probeErr[step.ID]; err != nil {
		return nil, err
	}
	if f.done[step.ID] {
		return &model.EvaluationResult{StepID: step.ID, Message: step.ID + " done"}, nil
	}
	return &model.EvaluationResult{
		StepID:         step.ID,
		RequiresAction: true,
		Message:        step.ID + " pending",
		Diff:           "run " + step.ID,
	}, nil
}

func (f *fakePlugin) Apply(_ context.Context, _ *model.EvaluationResult, step *config.Step) error {
	f.applied = append(f.applied, step.ID)
	if f.onApply != nil {
		f.onApply(step.ID)
	}
	if err := f.applyErr[step.ID]; err != nil {
		return err
	}
	f.done[step.ID] = true
	return nil
}

type fakeLookup map[string]plugin.Plugin

func (l fakeLookup) Get(stepType string) (plugin.Plugin, error) {
	p, ok := l[stepType]
	if !ok {
		return nil, plugin.ErrPluginNotFound{Name: stepType}
	}
	return p, nil
}

// step builds a command step; ids prefixed with "~" are non-fatal.
func step(id string, requires ...string) config.Step {
	fatal := true
	if id[0] == '~' {
		id = id[1:]
		fatal = false
	}
	return config.Step{
		ID:       id,
		Type:     config.TypeCommand,
		Fatal:    fatal,
		Requires: requires,
		Command:  &config.CommandStep{Command: "true", Check: "false"},
	}
}

func mustPlan(fp *fakePlugin, steps ...config.Step) *Plan {
	plan, err := BuildPlan(steps, fakeLookup{config.TypeCommand: fp})
	if err != nil {
		panic(err)
	}
	return plan
}

func statuses(run *model.RunResult) map[string]string {
	out := make(map[string]string, len(run.Steps))
	for _, s := range run.Steps {
		out[s.StepID] = s.Status
	}
	return out
}

var errBoom = errors.New("boom")
