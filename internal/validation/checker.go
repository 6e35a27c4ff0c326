package validation

import (
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// Result is the outcome of one validation.
type Result struct {
	Validation config.Validation
	Passed     bool
	Message    string
	Error      error
}

// Describe renders the rule for reports, e.g. "command_exists zsh".
func (r Result) Describe() string {
	v := r.Validation
	switch {
	case v.CommandExists != nil:
		return v.Type + " " + v.CommandExists.Command
	case v.FileExists != nil:
		return v.Type + " " + v.FileExists.Path
	case v.PathContains != nil:
		return v.Type + " " + v.PathContains.File
	}
	return v.Type
}

// Checker evaluates validations for one user. Paths are expanded against
// that user's home, not the process's.
type Checker struct {
	state system.State
	user  system.User
}

// NewChecker returns a Checker reading host state through state.
func NewChecker(state system.State, user system.User) *Checker {
	return &Checker{state: state, user: user}
}

// Run evaluates every validation in order. The returned error joins every
// failure; results are complete either way.
func (c *Checker) Run(validations []config.Validation) ([]Result, error) {
	results := make([]Result, 0, len(validations))
	var failures []error

	for _, v := range validations {
		res := Result{Validation: v, Passed: true, Message: "passed"}
		if err := c.check(v); err != nil {
			res = Result{Validation: v, Message: err.Error(), Error: err}
			failures = append(failures, fmt.Errorf("%s: %w", res.Describe(), err))
		}
		results = append(results, res)
	}

	if len(failures) > 0 {
		return results, fmt.Errorf("validations failed: %w", errors.Join(failures...))
	}
	return results, nil
}

func (c *Checker) check(v config.Validation) error {
	missing := func() error {
		return devstraperrors.NewValidationError("validation."+v.Type, "configuration missing", nil)
	}

	switch v.Type {
	case "command_exists":
		if v.CommandExists == nil {
			return missing()
		}
		return CheckCommandExists(c.state, v.CommandExists.Command)
	case "file_exists":
		if v.FileExists == nil {
			return missing()
		}
		return CheckFileExists(c.state, c.user.Expand(v.FileExists.Path))
	case "path_contains":
		if v.PathContains == nil {
			return missing()
		}
		return CheckPathContains(c.state, c.user.Expand(v.PathContains.File), v.PathContains.Text)
	default:
		return devstraperrors.NewValidationError("validation.type", fmt.Sprintf("unknown validation type %q", v.Type), nil)
	}
}
