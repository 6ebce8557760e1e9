// Package toolrun launches external diagnostic commands and captures their
// output into named artifact files. It is a side-effecting primitive: callers
// decide which tools to run and where output lands; toolrun only guarantees
// that a failed invocation is recorded inline in the artifact instead of
// aborting anything.
package toolrun

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single synchronous tool invocation. Diagnostic
// tools that hang would otherwise stall the whole sampling iteration.
const DefaultTimeout = 60 * time.Second

// Runner appends external tool output to artifact files and spawns detached
// capture processes.
type Runner struct {
	timeout time.Duration
	now     func() time.Time
	log     *zap.SugaredLogger
}

// NewRunner creates a Runner. logger may be nil for silent operation.
func NewRunner(logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{timeout: DefaultTimeout, now: time.Now, log: logger}
}

// AppendCommand runs name with args and appends a timestamped block with the
// combined stdout/stderr to the artifact file. Failures (tool missing,
// non-zero exit, timeout) are written inline into the artifact and returned,
// but callers are expected to treat the error as best-effort information.
func (r *Runner) AppendCommand(ctx context.Context, artifact, name string, args ...string) error {
	f, err := os.OpenFile(artifact, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open artifact %s: %w", artifact, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "==== %s %s %s ====\n", r.now().UTC().Format(time.RFC3339), name, strings.Join(args, " "))

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	cmd.Stdout = f
	cmd.Stderr = f
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(f, "hostdiag: %s: %v\n", name, err)
		r.log.Debugw("tool invocation failed", "tool", name, "error", err)
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// AppendLine appends one timestamped free-form line to the artifact file.
// Used for tracking records that are produced by the orchestrator itself
// rather than by an external tool.
func (r *Runner) AppendLine(artifact, format string, args ...any) error {
	f, err := os.OpenFile(artifact, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open artifact %s: %w", artifact, err)
	}
	defer f.Close()
	fmt.Fprintf(f, "%s %s\n", r.now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	return nil
}

// StartDetached spawns name with args in its own process group, with stdout
// and stderr redirected to the artifact file, and returns the child's pid and
// process-group id. The child is released so it survives the caller's exit.
func (r *Runner) StartDetached(artifact, name string, args ...string) (pid int32, pgid int, err error) {
	f, err := os.OpenFile(artifact, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, 0, fmt.Errorf("open artifact %s: %w", artifact, err)
	}
	defer f.Close()

	cmd := exec.Command(name, args...)
	cmd.Stdout = f
	cmd.Stderr = f
	// A fresh process group makes the whole descendant tree reachable with a
	// single negated-pgid signal at teardown.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(f, "hostdiag: %s: %v\n", name, err)
		return 0, 0, fmt.Errorf("start %s: %w", name, err)
	}

	pid = int32(cmd.Process.Pid)
	pgid, err = syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		// Child raced away already; its pgid equals its pid thanks to Setpgid.
		pgid = cmd.Process.Pid
	}
	if err := cmd.Process.Release(); err != nil {
		r.log.Debugw("release detached process", "pid", pid, "error", err)
	}
	return pid, pgid, nil
}
