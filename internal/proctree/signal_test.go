package proctree

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupOfSelf(t *testing.T) {
	pgid, ok := GroupOf(int32(os.Getpid()))
	require.True(t, ok)
	assert.Greater(t, pgid, 0)
}

func TestGroupOfGone(t *testing.T) {
	_, ok := GroupOf(999999999)
	assert.False(t, ok)
}

func TestSignalGroupInvalid(t *testing.T) {
	assert.Error(t, SignalGroup(0, syscall.SIGTERM))
	assert.Error(t, SignalGroup(-1, syscall.SIGTERM))
}

func TestSignalProcessGoneIsSuccess(t *testing.T) {
	// A process that exited before teardown must not fail the stop.
	assert.NoError(t, SignalProcess(999999999, syscall.SIGTERM))
}

func TestSignalProcessSelfNullSignal(t *testing.T) {
	assert.NoError(t, SignalProcess(int32(os.Getpid()), syscall.Signal(0)))
}
