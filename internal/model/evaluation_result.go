package model

// EvaluationResult is what a probe found. It is returned by Plugin.Evaluate
// and handed to Plugin.Apply when action is required.
type EvaluationResult struct {
	StepID string

	// RequiresAction is false when the step's work is already done.
	RequiresAction bool

	// Message describes the assessment for step lines and verify output.
	Message string

	// Diff previews the change for dry runs: a unified diff for file edits,
	// otherwise the commands that would run.
	Diff string

	// InternalData is opaque probe output reused by Apply.
	InternalData any
}

// Satisfied reports whether the probe found nothing to do.
func (e *EvaluationResult) Satisfied() bool {
	return e != nil && !e.RequiresAction
}
