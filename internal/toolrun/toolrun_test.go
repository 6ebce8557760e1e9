package toolrun

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCommandCapturesOutput(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "out.txt")
	r := NewRunner(nil)

	require.NoError(t, r.AppendCommand(context.Background(), artifact, "echo", "hello"))
	require.NoError(t, r.AppendCommand(context.Background(), artifact, "echo", "again"))

	b, err := os.ReadFile(artifact)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "==== ")
	assert.Contains(t, out, "echo hello")
	assert.Contains(t, out, "hello\n")
	assert.Contains(t, out, "again\n")
}

func TestAppendCommandRecordsFailureInline(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "out.txt")
	r := NewRunner(nil)

	err := r.AppendCommand(context.Background(), artifact, "definitely-no-such-tool-xyz")
	require.Error(t, err)

	// The failure is written into the artifact so the broader operation can
	// carry on without losing the evidence.
	b, readErr := os.ReadFile(artifact)
	require.NoError(t, readErr)
	assert.Contains(t, string(b), "hostdiag: definitely-no-such-tool-xyz:")
}

func TestAppendLine(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "dumps.out")
	r := NewRunner(nil)

	require.NoError(t, r.AppendLine(artifact, "pid=%d threads=%d dumpdir=%s", 42, 7, "/srv/app"))

	b, err := os.ReadFile(artifact)
	require.NoError(t, err)
	assert.Contains(t, string(b), "pid=42 threads=7 dumpdir=/srv/app")
}

func TestStartDetachedOwnProcessGroup(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "capture.out")
	r := NewRunner(nil)

	pid, pgid, err := r.StartDetached(artifact, "sleep", "30")
	require.NoError(t, err)
	require.Greater(t, pid, int32(0))

	// Setpgid gives the child its own group, keyed by its own pid.
	assert.Equal(t, int(pid), pgid)

	require.NoError(t, syscall.Kill(-pgid, syscall.SIGKILL))
}

func TestStartDetachedMissingTool(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "capture.out")
	r := NewRunner(nil)

	_, _, err := r.StartDetached(artifact, "definitely-no-such-tool-xyz")
	require.Error(t, err)

	b, readErr := os.ReadFile(artifact)
	require.NoError(t, readErr)
	assert.Contains(t, string(b), "definitely-no-such-tool-xyz")
}
