package privilege

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/system/systemtest"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

func TestGuardRefusesRoot(t *testing.T) {
	host := systemtest.NewHost()
	g := New(host, logger.Nop(), WithEUID(func() int { return 0 }))

	err := g.Check(context.Background())
	require.Error(t, err)

	var privErr *devstraperrors.PrivilegeError
	require.ErrorAs(t, err, &privErr)
	assert.Contains(t, err.Error(), "refusing to run as root")
	assert.Empty(t, host.Calls, "no sudo prompt for root")
}

func TestGuardAcquiresSudoOnce(t *testing.T) {
	host := systemtest.NewHost()
	g := New(host, logger.Nop(), WithEUID(func() int { return 1000 }))

	require.NoError(t, g.Check(context.Background()))
	assert.Equal(t, []string{"run sudo -v"}, host.Calls)
}

func TestGuardReportsSudoFailure(t *testing.T) {
	host := systemtest.NewHost()
	host.Fail["run sudo -v"] = errors.New("exit status 1")
	g := New(host, logger.Nop(), WithEUID(func() int { return 1000 }))

	err := g.Check(context.Background())
	var privErr *devstraperrors.PrivilegeError
	require.ErrorAs(t, err, &privErr)
	assert.Contains(t, err.Error(), "could not acquire sudo credentials")
}
