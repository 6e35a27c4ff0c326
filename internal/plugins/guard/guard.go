// Package guard evaluates the creates/command/check conditions that decide
// whether an opaque command or installer has already done its work.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

// Guard lists the configured conditions. Every configured condition must
// hold for the guard to be satisfied.
type Guard struct {
	Creates string
	Command string
	Check   string
	Env     map[string]string
}

// Configured reports whether at least one condition is set.
func (g Guard) Configured() bool {
	return strings.TrimSpace(g.Creates) != "" || strings.TrimSpace(g.Command) != "" || strings.TrimSpace(g.Check) != ""
}

// Satisfied evaluates the guard against state. reason names the first
// condition that failed.
func (g Guard) Satisfied(ctx context.Context, state system.State, user system.User) (ok bool, reason string, err error) {
	if g.Creates != "" {
		path := user.Expand(g.Creates)
		if !state.PathExists(path) {
			return false, path + " does not exist", nil
		}
	}
	if g.Command != "" && !state.CommandExists(g.Command) {
		return false, g.Command + " not found on PATH", nil
	}
	if g.Check != "" {
		passed, err := state.Check(ctx, g.Check, g.Env)
		if err != nil {
			return false, "", fmt.Errorf("run check: %w", err)
		}
		if !passed {
			return false, "check failed", nil
		}
	}
	return true, "", nil
}
