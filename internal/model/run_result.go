package model

import "time"

// RunState names the lifecycle position of a provisioning run.
type RunState string

const (
	RunIdle           RunState = "idle"
	RunPrivilegeCheck RunState = "privilege_check"
	RunProvisioning   RunState = "provisioning"
	RunSummary        RunState = "summary"
	RunCompleted      RunState = "completed"
	RunAborted        RunState = "aborted"
)

// RunResult aggregates the ordered per-step outcomes of a run.
type RunResult struct {
	RunID    string
	DryRun   bool
	Steps    []StepResult
	State    RunState
	Fatal    error
	FatalID  string
	Duration time.Duration
}

// Record appends a step outcome.
func (r *RunResult) Record(res StepResult) {
	r.Steps = append(r.Steps, res)
}

// Count returns the number of steps that ended in the given status.
func (r *RunResult) Count(status string) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Changed returns how many steps altered the host or would have.
func (r *RunResult) Changed() int {
	n := 0
	for _, s := range r.Steps {
		if s.Changed() {
			n++
		}
	}
	return n
}

// Aborted reports whether a fatal failure halted the run.
func (r *RunResult) Aborted() bool {
	return r.Fatal != nil
}

// ExitCode returns the process exit status for the run.
func (r *RunResult) ExitCode() int {
	if r.Aborted() {
		return 1
	}
	return 0
}

// Result looks up the outcome recorded for a step.
func (r *RunResult) Result(stepID string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.StepID == stepID {
			return s, true
		}
	}
	return StepResult{}, false
}
