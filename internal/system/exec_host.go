package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
)

// ExecHost implements Host against the real machine using apt, dpkg,
// systemd, ufw and sudo.
type ExecHost struct {
	log    *logger.Logger
	stdout io.Writer
	stderr io.Writer
	shell  string
	svc    serviceQuerier
}

// ExecOption customises an ExecHost.
type ExecOption func(*ExecHost)

// WithOutput sets where streamed child output is written.
func WithOutput(stdout, stderr io.Writer) ExecOption {
	return func(h *ExecHost) {
		h.stdout = stdout
		h.stderr = stderr
	}
}

// WithShell overrides the shell used for checks.
func WithShell(shell string) ExecOption {
	return func(h *ExecHost) {
		h.shell = shell
	}
}

// NewExecHost returns a Host backed by real system commands.
func NewExecHost(log *logger.Logger, opts ...ExecOption) *ExecHost {
	h := &ExecHost{
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
		shell:  "bash",
	}
	for _, opt := range opts {
		opt(h)
	}
	h.svc = newServiceQuerier(h)
	return h
}

var _ Host = (*ExecHost)(nil)

// CommandExists reports whether name resolves on PATH.
func (h *ExecHost) CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// PathExists reports whether a file or directory exists at path.
func (h *ExecHost) PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadFile returns the file contents.
func (h *ExecHost) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// FileContains reports whether path exists and contains marker. A missing
// file is not an error.
func (h *ExecHost) FileContains(path, marker string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return bytes.Contains(data, []byte(marker)), nil
}

// PackageInstalled queries dpkg for the package status.
func (h *ExecHost) PackageInstalled(ctx context.Context, name string) (bool, error) {
	out, err := h.capture(ctx, Command{Name: "dpkg-query", Args: []string{"-W", "-f=${db:Status-Status}", name}})
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, fmt.Errorf("query package %s: %w", name, err)
	}
	return strings.TrimSpace(out) == "installed", nil
}

// ServiceState reports whether a systemd unit is enabled and active.
func (h *ExecHost) ServiceState(ctx context.Context, name string) (ServiceStatus, error) {
	return h.svc.status(ctx, name)
}

// FirewallActive reports whether ufw is installed and active.
func (h *ExecHost) FirewallActive(ctx context.Context) (bool, error) {
	if !h.CommandExists("ufw") && !h.PathExists("/usr/sbin/ufw") {
		return false, nil
	}
	out, err := h.capture(ctx, Command{Name: "ufw", Args: []string{"status"}, Privileged: true})
	if err != nil {
		return false, fmt.Errorf("query firewall status: %w", err)
	}
	return strings.Contains(out, "Status: active"), nil
}

// UserGroups lists the groups recorded for user in the group database.
func (h *ExecHost) UserGroups(ctx context.Context, user string) ([]string, error) {
	out, err := h.capture(ctx, Command{Name: "id", Args: []string{"-nG", user}})
	if err != nil {
		return nil, fmt.Errorf("list groups for %s: %w", user, err)
	}
	return strings.Fields(out), nil
}

// LoginShell returns the login shell recorded in the passwd database.
func (h *ExecHost) LoginShell(ctx context.Context, user string) (string, error) {
	out, err := h.capture(ctx, Command{Name: "getent", Args: []string{"passwd", user}})
	if err != nil {
		return "", fmt.Errorf("look up passwd entry for %s: %w", user, err)
	}
	fields := strings.Split(strings.TrimSpace(out), ":")
	if len(fields) < 7 {
		return "", fmt.Errorf("malformed passwd entry for %s", user)
	}
	return fields[6], nil
}

// Check runs script with the configured shell; exit status 0 means satisfied.
func (h *ExecHost) Check(ctx context.Context, script string, env map[string]string) (bool, error) {
	_, err := h.capture(ctx, Command{Name: h.shell, Args: []string{"-c", script}, Env: env})
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}

// Output runs a command without streaming and returns its trimmed stdout.
func (h *ExecHost) Output(ctx context.Context, c Command) (string, error) {
	return h.capture(ctx, c)
}

// UpdatePackageIndex refreshes the apt package index.
func (h *ExecHost) UpdatePackageIndex(ctx context.Context) error {
	return h.Run(ctx, Command{Name: "apt-get", Args: []string{"update"}, Privileged: true})
}

// InstallPackages installs packages non-interactively.
func (h *ExecHost) InstallPackages(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, names...)
	return h.Run(ctx, Command{
		Name:       "apt-get",
		Args:       args,
		Env:        map[string]string{"DEBIAN_FRONTEND": "noninteractive"},
		Privileged: true,
	})
}

// EnableService enables a unit at boot and starts it now.
func (h *ExecHost) EnableService(ctx context.Context, name string) error {
	return h.Run(ctx, Command{Name: "systemctl", Args: []string{"enable", "--now", name}, Privileged: true})
}

// WriteFile writes a user-owned file, creating parent directories. The mode
// is applied even when the file already exists.
func (h *ExecHost) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

// AppendFile appends to a user-owned file, creating it when absent.
func (h *ExecHost) AppendFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MkdirAll creates a user-owned directory tree.
func (h *ExecHost) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WritePrivileged writes a root-owned file through sudo.
func (h *ExecHost) WritePrivileged(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if err := h.runQuiet(ctx, Command{Name: "install", Args: []string{"-d", "-m", "0755", filepath.Dir(path)}, Privileged: true}); err != nil {
		return err
	}
	if err := h.runQuiet(ctx, Command{Name: "tee", Args: []string{path}, Privileged: true, Stdin: bytes.NewReader(data)}); err != nil {
		return err
	}
	return h.runQuiet(ctx, Command{Name: "chmod", Args: []string{fmt.Sprintf("%04o", perm.Perm()), path}, Privileged: true})
}

// RemovePrivileged removes a root-owned file through sudo. A missing file is
// not an error.
func (h *ExecHost) RemovePrivileged(ctx context.Context, path string) error {
	return h.runQuiet(ctx, Command{Name: "rm", Args: []string{"-f", path}, Privileged: true})
}

// Run executes a command, streaming its output to the terminal.
func (h *ExecHost) Run(ctx context.Context, c Command) error {
	if c.Quiet {
		return h.runQuiet(ctx, c)
	}
	argv := c.Argv()
	h.log.Exec("exec", argv)
	res, err := runStreaming(buildCmd(ctx, c), h.stdout, h.stderr)
	if err != nil {
		return &CommandError{Args: argv, Output: res.PrimaryOutput(), Err: err}
	}
	return nil
}

func (h *ExecHost) runQuiet(ctx context.Context, c Command) error {
	argv := c.Argv()
	h.log.Exec("exec", argv)
	res, err := runStreaming(buildCmd(ctx, c), nil, nil)
	if err != nil {
		return &CommandError{Args: argv, Output: res.PrimaryOutput(), Err: err}
	}
	return nil
}

func (h *ExecHost) capture(ctx context.Context, c Command) (string, error) {
	argv := c.Argv()
	h.log.Exec("probe", argv)
	res, err := runStreaming(buildCmd(ctx, c), nil, nil)
	if err != nil {
		return res.Stdout, err
	}
	return res.Stdout, nil
}
