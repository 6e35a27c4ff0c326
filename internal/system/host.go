// Package system models the host machine as an injected capability so that
// probes and mutators can run against a fake in tests.
package system

import (
	"context"
	"io"
	"os"
)

// ServiceStatus is the systemd view of a unit.
type ServiceStatus struct {
	Enabled bool
	Active  bool
}

// Command describes an external process invocation.
type Command struct {
	Name       string
	Args       []string
	Env        map[string]string
	Dir        string
	Privileged bool
	Stdin      io.Reader
	// Quiet suppresses streaming of child output to the terminal.
	Quiet bool
}

// Argv returns the command line as it will be executed, including the sudo
// prefix for privileged commands.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+4)
	if c.Privileged {
		argv = append(argv, "sudo")
		if len(c.Env) > 0 {
			argv = append(argv, "env")
			argv = append(argv, envPairs(c.Env)...)
		}
	}
	argv = append(argv, c.Name)
	return append(argv, c.Args...)
}

// State is the read-only view of the host consulted by probes. None of its
// methods may mutate the machine, and results are never cached.
type State interface {
	CommandExists(name string) bool
	PathExists(path string) bool
	ReadFile(path string) ([]byte, error)
	FileContains(path, marker string) (bool, error)
	PackageInstalled(ctx context.Context, name string) (bool, error)
	ServiceState(ctx context.Context, name string) (ServiceStatus, error)
	FirewallActive(ctx context.Context) (bool, error)
	UserGroups(ctx context.Context, user string) ([]string, error)
	LoginShell(ctx context.Context, user string) (string, error)
	// Check runs a read-only shell check; exit status 0 means satisfied.
	Check(ctx context.Context, script string, env map[string]string) (bool, error)
	// Output runs a read-only command and returns its trimmed stdout.
	Output(ctx context.Context, cmd Command) (string, error)
}

// Operator mutates the host.
type Operator interface {
	UpdatePackageIndex(ctx context.Context) error
	InstallPackages(ctx context.Context, names ...string) error
	EnableService(ctx context.Context, name string) error
	WriteFile(path string, data []byte, perm os.FileMode) error
	AppendFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	WritePrivileged(ctx context.Context, path string, data []byte, perm os.FileMode) error
	RemovePrivileged(ctx context.Context, path string) error
	Run(ctx context.Context, cmd Command) error
}

// Host combines the read and write capabilities.
type Host interface {
	State
	Operator
}
