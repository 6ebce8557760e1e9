package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/hostdiag/internal/proctree"
	"github.com/vburojevic/hostdiag/internal/session"
)

func TestStatusIdleWithoutSession(t *testing.T) {
	f := newFixture(t)

	state, marker, entries, err := f.c.Status()
	require.NoError(t, err)
	assert.Equal(t, Idle, state)
	assert.Empty(t, marker)
	assert.Empty(t, entries)
}

func TestStatusIdleWhenRecordedProcessesAreDead(t *testing.T) {
	f := newFixture(t)
	s := f.saveSession(t, session.ManagedProcess{Role: session.RoleSampler, PID: 102, PGID: 102})

	state, marker, entries, err := f.c.Status()
	require.NoError(t, err)
	assert.Equal(t, Idle, state)
	assert.Equal(t, s.Marker, marker)
	assert.Empty(t, entries)
}

func TestStatusRunningRendersTrees(t *testing.T) {
	f := newFixture(t)
	s := f.saveSession(t,
		session.ManagedProcess{Role: session.RoleCapture, PID: 101, PGID: 101},
		session.ManagedProcess{Role: session.RoleSampler, PID: 102, PGID: 102},
	)
	f.setSnapshot([]proctree.Entry{
		{PID: 101, PPID: 1, Cmdline: "tcpdump -i any -w " + s.CapturePath()},
		{PID: 102, PPID: 1, Cmdline: "hostdiag sampler --marker " + s.Marker},
		{PID: 103, PPID: 102, Cmdline: "netstat -pan"},
	})

	state, marker, entries, err := f.c.Status()
	require.NoError(t, err)
	assert.Equal(t, Running, state)
	assert.Equal(t, s.Marker, marker)
	require.Len(t, entries, 2)

	assert.Equal(t, session.RoleCapture, entries[0].Role)
	assert.EqualValues(t, 101, entries[0].PID)

	assert.Equal(t, session.RoleSampler, entries[1].Role)
	assert.Contains(t, entries[1].Tree, "netstat -pan")

	// Status is read-only: no signals, no spawned processes.
	assert.Empty(t, f.events.list())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
}
