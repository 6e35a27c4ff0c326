// Package installer runs network-sourced installers for tools that have no
// native package: piped shell scripts and git checkouts.
package installer

import (
	"context"
	"fmt"
)

// Spec describes one installer invocation. Paths are already expanded.
type Spec struct {
	URL   string
	Dest  string
	Ref   string
	Depth int
	Shell string
	Args  []string
	Env   map[string]string
}

// Installer performs an installation. Failures surface as the step result.
type Installer interface {
	Install(ctx context.Context, spec Spec) error
	// Describe summarises what Install would do, for plans and dry runs.
	Describe(spec Spec) string
}

// Set maps installer methods to implementations.
type Set map[string]Installer

// Lookup returns the installer registered for method.
func (s Set) Lookup(method string) (Installer, error) {
	in, ok := s[method]
	if !ok {
		return nil, fmt.Errorf("no installer for method %q", method)
	}
	return in, nil
}
