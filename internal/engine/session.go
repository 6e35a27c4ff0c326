package engine

import (
	"context"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
)

// PrivilegeChecker refuses unsuitable invocations and primes credentials.
type PrivilegeChecker interface {
	Check(ctx context.Context) error
}

// Session runs a plan through the full lifecycle: privilege check,
// provisioning and summary.
type Session struct {
	RunID     string
	Guard     PrivilegeChecker
	Executor  *Executor
	Log       *logger.Logger
	OnSummary func(*model.RunResult)
}

// Run executes the plan. The returned result carries the terminal lifecycle
// state; Fatal is set whenever the run aborted.
func (s *Session) Run(ctx context.Context, plan *Plan) (*model.RunResult, error) {
	log := s.Log
	if log == nil {
		log = logger.Nop()
	}

	lc, err := NewLifecycle()
	if err != nil {
		return nil, err
	}
	defer lc.Stop()

	if err := lc.Fire(EventStart); err != nil {
		return nil, err
	}

	if s.Guard != nil {
		if err := s.Guard.Check(ctx); err != nil {
			log.Error(err, "privilege check failed")
			if fireErr := lc.Fire(EventAbort); fireErr != nil {
				return nil, fireErr
			}
			return &model.RunResult{
				RunID:  s.RunID,
				DryRun: s.Executor.DryRun(),
				State:  lc.State(),
				Fatal:  err,
			}, nil
		}
	}

	if err := lc.Fire(EventAuthorize); err != nil {
		return nil, err
	}
	log.WithFields(map[string]any{"steps": len(plan.Steps), "dry_run": s.Executor.DryRun()}).Info("provisioning")

	run := s.Executor.Apply(ctx, plan)
	run.RunID = s.RunID

	if run.Aborted() {
		log.Error(run.Fatal, "run aborted at "+run.FatalID)
		if err := lc.Fire(EventAbort); err != nil {
			return nil, err
		}
		run.State = lc.State()
		return run, nil
	}

	if err := lc.Fire(EventFinish); err != nil {
		return nil, err
	}
	run.State = lc.State()
	if s.OnSummary != nil {
		s.OnSummary(run)
	}

	if err := lc.Fire(EventComplete); err != nil {
		return nil, err
	}
	run.State = lc.State()
	log.WithFields(map[string]any{"changed": run.Changed(), "steps": len(run.Steps)}).Info("run completed")
	return run, nil
}
