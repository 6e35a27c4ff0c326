package engine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/alexisbeaulieu97/devstrap/internal/model"
)

// Lifecycle events.
const (
	EventStart     = "START"
	EventAuthorize = "AUTHORIZED"
	EventFinish    = "FINISHED"
	EventComplete  = "COMPLETE"
	EventAbort     = "ABORT"
)

const (
	stateIdle           = "idle"
	statePrivilegeCheck = "privilege_check"
	stateProvisioning   = "provisioning"
	stateSummary        = "summary"
	stateCompleted      = "completed"
	stateAborted        = "aborted"
)

type lifecycleContext struct{}

// Lifecycle tracks a run through idle, privilege_check, provisioning,
// summary and completed. A run may abort from privilege_check or
// provisioning. completed and aborted are terminal.
type Lifecycle struct {
	interp      *statekit.Interpreter[lifecycleContext]
	transitions int
}

// NewLifecycle builds and starts the run state machine in the idle state.
func NewLifecycle() (*Lifecycle, error) {
	lc := &Lifecycle{}
	machine, err := statekit.NewMachine[lifecycleContext]("devstrap-run").
		WithInitial(stateIdle).
		WithContext(lifecycleContext{}).
		WithAction("countTransition", func(_ *lifecycleContext, _ statekit.Event) {
			lc.transitions++
		}).
		State(stateIdle).
		On(EventStart).Target(statePrivilegeCheck).Done().
		State(statePrivilegeCheck).
		OnEntry("countTransition").
		On(EventAuthorize).Target(stateProvisioning).
		On(EventAbort).Target(stateAborted).Done().
		State(stateProvisioning).
		OnEntry("countTransition").
		On(EventFinish).Target(stateSummary).
		On(EventAbort).Target(stateAborted).Done().
		State(stateSummary).
		OnEntry("countTransition").
		On(EventComplete).Target(stateCompleted).Done().
		State(stateCompleted).
		OnEntry("countTransition").
		On(EventComplete).Target(stateCompleted).Done().
		State(stateAborted).
		OnEntry("countTransition").
		On(EventAbort).Target(stateAborted).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build run lifecycle: %w", err)
	}

	lc.interp = statekit.NewInterpreter(machine)
	lc.interp.Start()
	return lc, nil
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() model.RunState {
	return model.RunState(l.interp.State().Value)
}

// Terminal reports whether the run has completed or aborted.
func (l *Lifecycle) Terminal() bool {
	switch l.State() {
	case model.RunCompleted, model.RunAborted:
		return true
	default:
		return false
	}
}

// Transitions returns the number of states entered since idle.
func (l *Lifecycle) Transitions() int {
	return l.transitions
}

// Fire sends an event and fails when it does not move the run forward.
func (l *Lifecycle) Fire(event string) error {
	from := l.State()
	if from == model.RunCompleted || from == model.RunAborted {
		return fmt.Errorf("run already %s; %s ignored", from, event)
	}
	l.interp.Send(statekit.Event{Type: statekit.EventType(event)})
	if l.State() == from {
		return fmt.Errorf("event %s is not valid in state %s", event, from)
	}
	return nil
}

// Stop releases the interpreter.
func (l *Lifecycle) Stop() {
	l.interp.Stop()
}
