package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devstrap/internal/model"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

type fakeGuard struct {
	err   error
	calls int
}

func (g *fakeGuard) Check(context.Context) error {
	g.calls++
	return g.err
}

func TestSessionCompletesRun(t *testing.T) {
	fp := newFakePlugin()
	guard := &fakeGuard{}
	var summarized *model.RunResult
	session := &Session{
		RunID:    "run-1",
		Guard:    guard,
		Executor: NewExecutor(nil),
		OnSummary: func(run *model.RunResult) {
			summarized = run
		},
	}

	run, err := session.Run(context.Background(), mustPlan(fp, step("a"), step("b", "a")))
	require.NoError(t, err)

	assert.Equal(t, 1, guard.calls)
	assert.Equal(t, model.RunCompleted, run.State)
	assert.Equal(t, "run-1", run.RunID)
	require.NotNil(t, summarized)
	assert.Equal(t, 2, summarized.Count(model.StatusApplied))
}

func TestSessionAbortsOnPrivilegeFailure(t *testing.T) {
	fp := newFakePlugin()
	guard := &fakeGuard{err: devstraperrors.NewPrivilegeError("refusing to run as root", nil)}
	summaryCalled := false
	session := &Session{
		Guard:     guard,
		Executor:  NewExecutor(nil),
		OnSummary: func(*model.RunResult) { summaryCalled = true },
	}

	run, err := session.Run(context.Background(), mustPlan(fp, step("a")))
	require.NoError(t, err)

	assert.Equal(t, model.RunAborted, run.State)
	var privErr *devstraperrors.PrivilegeError
	assert.ErrorAs(t, run.Fatal, &privErr)
	assert.Empty(t, fp.probed, "no step runs without privileges")
	assert.False(t, summaryCalled)
	assert.Equal(t, 1, run.ExitCode())
}

func TestSessionAbortsOnFatalStep(t *testing.T) {
	fp := newFakePlugin()
	fp.applyErr["a"] = errBoom
	session := &Session{Guard: &fakeGuard{}, Executor: NewExecutor(nil)}

	run, err := session.Run(context.Background(), mustPlan(fp, step("a"), step("b")))
	require.NoError(t, err)

	assert.Equal(t, model.RunAborted, run.State)
	assert.Equal(t, "a", run.FatalID)
	assert.Len(t, run.Steps, 1)
}

func TestSessionDryRun(t *testing.T) {
	fp := newFakePlugin()
	session := &Session{Executor: NewExecutor(nil, WithDryRun(true))}

	run, err := session.Run(context.Background(), mustPlan(fp, step("a")))
	require.NoError(t, err)

	assert.True(t, run.DryRun)
	assert.Equal(t, model.RunCompleted, run.State)
	assert.Equal(t, 1, run.Count(model.StatusWouldApply))
	assert.Empty(t, fp.applied)
}
