package system

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
)

type serviceQuerier interface {
	status(ctx context.Context, name string) (ServiceStatus, error)
}

// dbusConn is the subset of the go-systemd connection used for probing.
type dbusConn interface {
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]sddbus.UnitStatus, error)
	GetUnitPropertyContext(ctx context.Context, unit string, propertyName string) (*sddbus.Property, error)
	Close()
}

type dbusFactory func(ctx context.Context) (dbusConn, error)

func defaultDBus(ctx context.Context) (dbusConn, error) {
	conn, err := sddbus.NewWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// systemdQuerier reads unit state over the system bus and falls back to
// systemctl when the bus is unreachable (containers, minimal chroots).
type systemdQuerier struct {
	host    *ExecHost
	newConn dbusFactory
}

func newServiceQuerier(h *ExecHost) serviceQuerier {
	return &systemdQuerier{host: h, newConn: defaultDBus}
}

func (q *systemdQuerier) status(ctx context.Context, name string) (ServiceStatus, error) {
	conn, err := q.newConn(ctx)
	if err != nil {
		q.host.log.Debugf("system bus unavailable, using systemctl: %v", err)
		return q.systemctl(ctx, name)
	}
	defer conn.Close()
	return unitStatus(ctx, conn, unitName(name))
}

func unitStatus(ctx context.Context, conn dbusConn, unit string) (ServiceStatus, error) {
	var st ServiceStatus

	units, err := conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return st, fmt.Errorf("query unit %s: %w", unit, err)
	}
	for _, u := range units {
		if u.Name == unit && u.LoadState == "loaded" {
			st.Active = u.ActiveState == "active"
		}
	}

	prop, err := conn.GetUnitPropertyContext(ctx, unit, "UnitFileState")
	if err != nil {
		return st, fmt.Errorf("query unit file state for %s: %w", unit, err)
	}
	if state, ok := prop.Value.Value().(string); ok {
		st.Enabled = isEnabledState(state)
	}
	return st, nil
}

func (q *systemdQuerier) systemctl(ctx context.Context, name string) (ServiceStatus, error) {
	var st ServiceStatus
	enabled, err := q.host.capture(ctx, Command{Name: "systemctl", Args: []string{"is-enabled", name}})
	if err != nil && !isExit(err) {
		return st, fmt.Errorf("systemctl is-enabled %s: %w", name, err)
	}
	st.Enabled = isEnabledState(strings.TrimSpace(enabled))

	_, err = q.host.capture(ctx, Command{Name: "systemctl", Args: []string{"is-active", "--quiet", name}})
	switch {
	case err == nil:
		st.Active = true
	case isExit(err):
		st.Active = false
	default:
		return st, fmt.Errorf("systemctl is-active %s: %w", name, err)
	}
	return st, nil
}

func isEnabledState(state string) bool {
	switch state {
	case "enabled", "enabled-runtime", "alias", "static", "indirect", "generated":
		return true
	default:
		return false
	}
}

func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}

func isExit(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
