// Package systemtest provides an in-memory system.Host for tests.
package systemtest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

// File is an in-memory file entry.
type File struct {
	Data       []byte
	Perm       os.FileMode
	Privileged bool
}

// Host is a fake system.Host. Mutations are recorded in Calls in order.
type Host struct {
	Files    map[string]*File
	Dirs     map[string]bool
	Commands map[string]bool
	Packages map[string]bool
	Services map[string]system.ServiceStatus
	Groups   map[string][]string
	Shells   map[string]string
	Firewall bool
	// FirewallRules are the profiles listed by `ufw status`.
	FirewallRules []string
	Checks        map[string]bool

	// Fail maps an operation key (see Calls) prefix to the error it returns.
	Fail map[string]error
	// OnRun simulates side effects of Run; it may return an error.
	OnRun func(h *Host, cmd system.Command) error

	Calls []string
}

// NewHost returns an empty fake host.
func NewHost() *Host {
	return &Host{
		Files:    make(map[string]*File),
		Dirs:     make(map[string]bool),
		Commands: make(map[string]bool),
		Packages: make(map[string]bool),
		Services: make(map[string]system.ServiceStatus),
		Groups:   make(map[string][]string),
		Shells:   make(map[string]string),
		Checks:   make(map[string]bool),
		Fail:     make(map[string]error),
	}
}

var _ system.Host = (*Host)(nil)

// Mutations returns the recorded calls excluding probes.
func (h *Host) Mutations() []string {
	return append([]string(nil), h.Calls...)
}

// SetFile seeds a user-owned file.
func (h *Host) SetFile(path, content string) {
	h.Files[filepath.Clean(path)] = &File{Data: []byte(content), Perm: 0o644}
}

// Content returns the content of a file, or "" when absent.
func (h *Host) Content(path string) string {
	if f, ok := h.Files[filepath.Clean(path)]; ok {
		return string(f.Data)
	}
	return ""
}

func (h *Host) record(key string) error {
	h.Calls = append(h.Calls, key)
	for prefix, err := range h.Fail {
		if strings.HasPrefix(key, prefix) {
			return err
		}
	}
	return nil
}

// CommandExists implements system.State.
func (h *Host) CommandExists(name string) bool {
	return h.Commands[name]
}

// PathExists implements system.State.
func (h *Host) PathExists(path string) bool {
	path = filepath.Clean(path)
	if _, ok := h.Files[path]; ok {
		return true
	}
	if h.Dirs[path] {
		return true
	}
	prefix := path + string(filepath.Separator)
	for name := range h.Files {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// ReadFile implements system.State.
func (h *Host) ReadFile(path string) ([]byte, error) {
	f, ok := h.Files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), f.Data...), nil
}

// FileContains implements system.State.
func (h *Host) FileContains(path, marker string) (bool, error) {
	f, ok := h.Files[filepath.Clean(path)]
	if !ok {
		return false, nil
	}
	return bytes.Contains(f.Data, []byte(marker)), nil
}

// PackageInstalled implements system.State.
func (h *Host) PackageInstalled(_ context.Context, name string) (bool, error) {
	return h.Packages[name], nil
}

// ServiceState implements system.State.
func (h *Host) ServiceState(_ context.Context, name string) (system.ServiceStatus, error) {
	return h.Services[name], nil
}

// FirewallActive implements system.State.
func (h *Host) FirewallActive(context.Context) (bool, error) {
	return h.Firewall, nil
}

// UserGroups implements system.State.
func (h *Host) UserGroups(_ context.Context, user string) ([]string, error) {
	return append([]string(nil), h.Groups[user]...), nil
}

// LoginShell implements system.State.
func (h *Host) LoginShell(_ context.Context, user string) (string, error) {
	return h.Shells[user], nil
}

// Check implements system.State by looking the script up in Checks.
func (h *Host) Check(_ context.Context, script string, _ map[string]string) (bool, error) {
	return h.Checks[script], nil
}

// Output implements system.State. It answers dpkg architecture and ufw
// status queries and returns "" for everything else.
func (h *Host) Output(_ context.Context, cmd system.Command) (string, error) {
	switch {
	case cmd.Name == "dpkg" && len(cmd.Args) == 1 && cmd.Args[0] == "--print-architecture":
		return "amd64", nil
	case cmd.Name == "ufw" && len(cmd.Args) == 1 && cmd.Args[0] == "status":
		if !h.Firewall {
			return "Status: inactive", nil
		}
		var b strings.Builder
		b.WriteString("Status: active\n\nTo                         Action      From\n--                         ------      ----\n")
		for _, rule := range h.FirewallRules {
			fmt.Fprintf(&b, "%-26s ALLOW       Anywhere\n", rule)
		}
		return strings.TrimSpace(b.String()), nil
	}
	return "", nil
}

// UpdatePackageIndex implements system.Operator.
func (h *Host) UpdatePackageIndex(context.Context) error {
	return h.record("apt-update")
}

// InstallPackages implements system.Operator.
func (h *Host) InstallPackages(_ context.Context, names ...string) error {
	if err := h.record("apt-install " + strings.Join(names, " ")); err != nil {
		return err
	}
	for _, n := range names {
		h.Packages[n] = true
	}
	return nil
}

// EnableService implements system.Operator.
func (h *Host) EnableService(_ context.Context, name string) error {
	if err := h.record("enable " + name); err != nil {
		return err
	}
	h.Services[name] = system.ServiceStatus{Enabled: true, Active: true}
	return nil
}

// WriteFile implements system.Operator.
func (h *Host) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := h.record("write " + path); err != nil {
		return err
	}
	h.Files[filepath.Clean(path)] = &File{Data: append([]byte(nil), data...), Perm: perm}
	return nil
}

// AppendFile implements system.Operator.
func (h *Host) AppendFile(path string, data []byte, perm os.FileMode) error {
	if err := h.record("append " + path); err != nil {
		return err
	}
	key := filepath.Clean(path)
	f, ok := h.Files[key]
	if !ok {
		f = &File{Perm: perm}
		h.Files[key] = f
	}
	f.Data = append(f.Data, data...)
	return nil
}

// MkdirAll implements system.Operator.
func (h *Host) MkdirAll(path string, _ os.FileMode) error {
	if err := h.record("mkdir " + path); err != nil {
		return err
	}
	h.Dirs[filepath.Clean(path)] = true
	return nil
}

// WritePrivileged implements system.Operator.
func (h *Host) WritePrivileged(_ context.Context, path string, data []byte, perm os.FileMode) error {
	if err := h.record("sudo-write " + path); err != nil {
		return err
	}
	h.Files[filepath.Clean(path)] = &File{Data: append([]byte(nil), data...), Perm: perm, Privileged: true}
	return nil
}

// RemovePrivileged implements system.Operator.
func (h *Host) RemovePrivileged(_ context.Context, path string) error {
	if err := h.record("sudo-rm " + path); err != nil {
		return err
	}
	delete(h.Files, filepath.Clean(path))
	return nil
}

// Run implements system.Operator.
func (h *Host) Run(_ context.Context, cmd system.Command) error {
	if cmd.Stdin != nil {
		_, _ = io.Copy(io.Discard, cmd.Stdin)
	}
	if err := h.record("run " + system.Render(cmd.Argv())); err != nil {
		return &system.CommandError{Args: cmd.Argv(), Err: err}
	}
	if h.OnRun != nil {
		return h.OnRun(h, cmd)
	}
	return nil
}

// FileNames lists the known files in sorted order.
func (h *Host) FileNames() []string {
	names := make([]string, 0, len(h.Files))
	for name := range h.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders a short description for failure messages.
func (h *Host) String() string {
	return fmt.Sprintf("fake host: %d files, %d packages, calls=%v", len(h.Files), len(h.Packages), h.Calls)
}
