package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// Executor runs a plan one step at a time.
type Executor struct {
	log      *logger.Logger
	dryRun   bool
	observer func(model.StepResult)
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithDryRun probes every step and records would_apply instead of mutating.
func WithDryRun(dryRun bool) Option {
	return func(e *Executor) {
		e.dryRun = dryRun
	}
}

// WithObserver registers a callback invoked as each step finishes.
func WithObserver(fn func(model.StepResult)) Option {
	return func(e *Executor) {
		e.observer = fn
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// NewExecutor creates an Executor.
func NewExecutor(log *logger.Logger, opts ...Option) *Executor {
	if log == nil {
		log = logger.Nop()
	}
	e := &Executor{log: log, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DryRun reports whether the executor is in dry-run mode.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Apply runs the plan in order. The first failing fatal step halts the run
// and is recorded in RunResult.Fatal; failing non-fatal steps are recorded
// and the run continues. Steps requiring a failed step are not attempted.
func (e *Executor) Apply(ctx context.Context, plan *Plan) *model.RunResult {
	start := e.now()
	run := &model.RunResult{DryRun: e.dryRun, State: model.RunProvisioning}
	failed := make(map[string]bool)

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			run.Fatal = fmt.Errorf("interrupted before %s: %w", step.ID, err)
			run.FatalID = step.ID
			break
		}

		res, err := e.runStep(ctx, step, failed)
		e.record(run, res)
		if err == nil {
			continue
		}

		failed[step.ID] = true
		if ctx.Err() != nil {
			run.Fatal = fmt.Errorf("interrupted during %s: %w", step.ID, ctx.Err())
			run.FatalID = step.ID
			break
		}
		if isFatal(step, err) {
			run.Fatal = err
			run.FatalID = step.ID
			break
		}
		e.log.WithStep(step.ID, step.Type).Warn(err.Error())
	}

	run.Duration = e.now().Sub(start)
	return run
}

func (e *Executor) runStep(ctx context.Context, step *Step, failed map[string]bool) (model.StepResult, error) {
	stepLog := e.log.WithStep(step.ID, step.Type)
	start := e.now()
	res := model.StepResult{StepID: step.ID, Name: step.Name, Fatal: step.Fatal}
	finish := func(status, message string, err error) (model.StepResult, error) {
		res.Status = status
		res.Message = message
		res.Error = err
		res.Duration = e.now().Sub(start)
		res.Timestamp = e.now()
		return res, err
	}

	if blockers := blockedBy(step, failed); len(blockers) > 0 {
		err := devstraperrors.NewExecutionError(step.ID, fmt.Errorf("blocked: prerequisite %s failed", strings.Join(blockers, ", ")))
		return finish(model.StatusFailed, "blocked by "+strings.Join(blockers, ", "), err)
	}

	stepLog.Debug("probing")
	eval, err := step.Probe(ctx)
	if err != nil {
		err = stepError(step.ID, err)
		return finish(model.StatusFailed, "probe failed", err)
	}
	if !eval.RequiresAction {
		stepLog.Debug("already satisfied: " + eval.Message)
		return finish(model.StatusSkipped, eval.Message, nil)
	}

	if e.dryRun {
		res.Diff = eval.Diff
		return finish(model.StatusWouldApply, eval.Message, nil)
	}

	stepLog.Debug(eval.Message)
	if err := step.Mutate(ctx, eval); err != nil {
		return finish(model.StatusFailed, eval.Message, stepError(step.ID, err))
	}
	return finish(model.StatusApplied, eval.Message, nil)
}

func (e *Executor) record(run *model.RunResult, res model.StepResult) {
	run.Record(res)
	if e.observer != nil {
		e.observer(res)
	}
}

// Verify probes every step without mutating anything.
func (e *Executor) Verify(ctx context.Context, plan *Plan) *model.VerificationSummary {
	start := e.now()
	summary := &model.VerificationSummary{}

	for _, step := range plan.Steps {
		if ctx.Err() != nil {
			break
		}
		probeStart := e.now()
		res := model.VerificationResult{StepID: step.ID, Name: step.Name}

		eval, err := step.Probe(ctx)
		if err != nil {
			res.Error = stepError(step.ID, err)
			res.Message = err.Error()
		} else {
			res.Satisfied = !eval.RequiresAction
			res.Message = eval.Message
		}
		res.Duration = e.now().Sub(probeStart)
		summary.Add(res)
	}

	summary.Duration = e.now().Sub(start)
	return summary
}

func blockedBy(step *Step, failed map[string]bool) []string {
	var blockers []string
	for _, req := range step.Requires {
		if failed[req] {
			blockers = append(blockers, req)
		}
	}
	return blockers
}

// isFatal applies the step flag, except that privilege and detection
// failures always halt the run.
func isFatal(step *Step, err error) bool {
	if step.Fatal {
		return true
	}
	return devstraperrors.AlwaysFatal(err)
}

// stepError converts a plugin error into the run's error taxonomy. Failed
// external commands become StepFailures carrying their output; privilege and
// detection errors pass through unchanged.
func stepError(stepID string, err error) error {
	var privErr *devstraperrors.PrivilegeError
	if errors.As(err, &privErr) {
		return privErr
	}
	var detErr *devstraperrors.DetectionError
	if errors.As(err, &detErr) {
		return detErr
	}
	var cmdErr *system.CommandError
	if errors.As(err, &cmdErr) {
		return devstraperrors.NewStepFailure(stepID, cmdErr.Args, cmdErr.Output, cmdErr.Err)
	}
	if id, ok := plugin.FailedStep(err); ok {
		stepID = id
	}
	// The ExecutionError names the step; keep only the plugin's cause.
	if pluginErr, ok := err.(*plugin.StepError); ok && pluginErr.Err != nil {
		err = pluginErr.Err
	}
	return devstraperrors.NewExecutionError(stepID, err)
}
