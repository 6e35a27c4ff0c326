package model

import (
	"time"
)

const (
	// StatusPending indicates a step has not started yet.
	StatusPending = "pending"
	// StatusSkipped indicates the probe reported the step as already satisfied.
	StatusSkipped = "skipped"
	// StatusApplied marks a step whose mutator ran successfully.
	StatusApplied = "applied"
	// StatusFailed marks a failure during probing or mutation.
	StatusFailed = "failed"
	// StatusWouldApply indicates a dry-run found work the mutator would do.
	StatusWouldApply = "would_apply"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	StepID    string
	Name      string
	Status    string
	Message   string
	Diff      string
	Fatal     bool
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// Changed reports whether the step altered the host, or would have in a
// dry run.
func (r StepResult) Changed() bool {
	return r.Status == StatusApplied || r.Status == StatusWouldApply
}
