package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	return "cannot read " + loc + ": " + e.Message
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" || namesField(e.Message, e.Field) {
		return "invalid config: " + e.Message
	}
	return "invalid config: " + e.Field + ": " + e.Message
}

func namesField(message, field string) bool {
	return strings.HasPrefix(message, field+" ") || strings.HasPrefix(message, field+":")
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a runtime failure while executing a step.
type ExecutionError struct {
	StepID string
	Err    error
}

// NewExecutionError constructs an ExecutionError.
func NewExecutionError(stepID string, err error) error {
	return &ExecutionError{StepID: stepID, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepID == "" {
		return fmt.Sprintf("execution failed: %v", e.Err)
	}
	return fmt.Sprintf("step %s: %v", e.StepID, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrivilegeError reports an invocation with the wrong privilege level, or a
// failure to obtain the sudo credential cache.
type PrivilegeError struct {
	Message string
	Err     error
}

// NewPrivilegeError constructs a PrivilegeError.
func NewPrivilegeError(message string, err error) error {
	return &PrivilegeError{Message: message, Err: err}
}

func (e *PrivilegeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("privilege error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("privilege error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PrivilegeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DetectionError reports a system identification value that could not be
// determined. Downstream steps would misconfigure the host without it.
type DetectionError struct {
	Value  string
	Source string
	Err    error
}

// NewDetectionError constructs a DetectionError for the named value.
func NewDetectionError(value, source string, err error) error {
	return &DetectionError{Value: value, Source: source, Err: err}
}

func (e *DetectionError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("detection error: could not determine %s", e.Value)
	if e.Source != "" {
		msg += " from " + e.Source
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying error.
func (e *DetectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StepFailure reports a mutator whose external command returned failure.
type StepFailure struct {
	StepID  string
	Command []string
	Output  string
	Err     error
}

// NewStepFailure constructs a StepFailure.
func NewStepFailure(stepID string, command []string, output string, err error) error {
	return &StepFailure{StepID: stepID, Command: command, Output: output, Err: err}
}

func (e *StepFailure) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("step failed")
	if e.StepID != "" {
		fmt.Fprintf(&b, " [%s]", e.StepID)
	}
	if len(e.Command) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Command, " "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, ": %s", lastLine(out))
	}
	return b.String()
}

// Unwrap exposes the underlying error.
func (e *StepFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PlanError reports an invalid step ordering detected while building a plan.
type PlanError struct {
	StepID  string
	Message string
}

// NewPlanError constructs a PlanError.
func NewPlanError(stepID, message string) error {
	return &PlanError{StepID: stepID, Message: message}
}

func (e *PlanError) Error() string {
	if e == nil {
		return ""
	}
	if e.StepID != "" {
		return fmt.Sprintf("plan error [%s]: %s", e.StepID, e.Message)
	}
	return fmt.Sprintf("plan error: %s", e.Message)
}

// AlwaysFatal reports whether err must stop a run regardless of the failing
// step's fatal flag. Missing privileges and undetectable system values leave
// every later step working from a wrong picture of the host.
func AlwaysFatal(err error) bool {
	var privErr *PrivilegeError
	var detErr *DetectionError
	return errors.As(err, &privErr) || errors.As(err, &detErr)
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}
