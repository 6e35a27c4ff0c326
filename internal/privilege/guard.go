// Package privilege refuses superuser invocations and primes the sudo
// credential cache before any step runs.
package privilege

import (
	"context"
	"os"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

// Guard validates the invoking user and acquires sudo credentials once.
type Guard struct {
	runner system.Operator
	log    *logger.Logger
	euid   func() int
}

// Option customises a Guard.
type Option func(*Guard)

// WithEUID overrides the effective uid lookup.
func WithEUID(fn func() int) Option {
	return func(g *Guard) {
		g.euid = fn
	}
}

// New returns a Guard that authenticates through runner.
func New(runner system.Operator, log *logger.Logger, opts ...Option) *Guard {
	g := &Guard{runner: runner, log: log, euid: os.Geteuid}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check fails with a PrivilegeError when running as root, then runs
// `sudo -v` so later privileged commands reuse the cached credentials.
// The prompt goes through the controlling terminal.
func (g *Guard) Check(ctx context.Context) error {
	if g.euid() == 0 {
		return devstraperrors.NewPrivilegeError("refusing to run as root; run as your normal user with sudo access", nil)
	}

	g.log.Debug("acquiring sudo credentials")
	if err := g.runner.Run(ctx, system.Command{Name: "sudo", Args: []string{"-v"}}); err != nil {
		return devstraperrors.NewPrivilegeError("could not acquire sudo credentials", err)
	}
	return nil
}
