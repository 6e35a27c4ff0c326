package plugin

import (
	"errors"
	"fmt"
)

// ErrPluginNotFound is returned when no registered plugin handles a step type.
type ErrPluginNotFound struct {
	Name string
}

func (e ErrPluginNotFound) Error() string {
	return fmt.Sprintf("no plugin handles step type '%s'", e.Name)
}

// Phase names the part of a step's lifecycle an error came from.
type Phase int

const (
	// PhaseConfig covers step bodies a plugin cannot act on.
	PhaseConfig Phase = iota + 1
	// PhaseProbe covers state probes that could not reach a verdict.
	PhaseProbe
	// PhaseMutate covers mutators that ran and failed.
	PhaseMutate
)

func (p Phase) String() string {
	switch p {
	case PhaseConfig:
		return "validation"
	case PhaseProbe:
		return "state"
	case PhaseMutate:
		return "execution"
	default:
		return "plugin"
	}
}

// StepError ties a plugin failure to the step and phase that produced it.
type StepError struct {
	Phase Phase
	Step  string
	Err   error
}

// Sentinels for errors.Is. They match any StepError of the same phase.
var (
	ErrInvalidStep = &StepError{Phase: PhaseConfig}
	ErrProbe       = &StepError{Phase: PhaseProbe}
	ErrMutate      = &StepError{Phase: PhaseMutate}
)

// NewValidationError reports a step body the plugin cannot use.
func NewValidationError(stepID string, err error) *StepError {
	return &StepError{Phase: PhaseConfig, Step: stepID, Err: err}
}

// NewStateError reports a probe that could not determine the host state.
func NewStateError(stepID string, err error) *StepError {
	return &StepError{Phase: PhaseProbe, Step: stepID, Err: err}
}

// NewExecutionError reports a mutator failure.
func NewExecutionError(stepID string, err error) *StepError {
	return &StepError{Phase: PhaseMutate, Step: stepID, Err: err}
}

func (e *StepError) Error() string {
	msg := e.Phase.String() + " error in step " + e.Step
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is matches another StepError of the same phase. A target with a step id
// also requires the ids to agree.
func (e *StepError) Is(target error) bool {
	t, ok := target.(*StepError)
	if !ok || t.Phase != e.Phase {
		return false
	}
	return t.Step == "" || t.Step == e.Step
}

// FailedStep returns the step id carried by the first StepError in err's
// chain.
func FailedStep(err error) (string, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}
