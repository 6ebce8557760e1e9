// Package sampler implements the periodic collection loop. Once per interval
// it appends one timestamped snapshot to each per-metric artifact, then asks
// every matched application runtime to emit its own diagnostic dump via a
// non-fatal signal. The loop is strictly iterative: one iteration at a time,
// a sleep in between, cancellation only through the context.
package sampler

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/vburojevic/hostdiag/internal/proctree"
	"github.com/vburojevic/hostdiag/internal/session"
)

// DumpSignal asks a runtime to emit its internal diagnostic snapshot (thread
// dump / javacore). It must never be a fatal signal.
const DumpSignal = syscall.SIGQUIT

// Options configures a sampling loop.
type Options struct {
	Dir      string
	Prefix   string
	Hostname string
	Interval time.Duration
	Selector string
	Denylist []string
	// SelfPID is excluded from runtime matching so the loop never signals
	// itself when the selector happens to match its own command line.
	SelfPID int32
}

// runner is the subset of toolrun.Runner the loop needs.
type runner interface {
	AppendCommand(ctx context.Context, artifact, name string, args ...string) error
	AppendLine(artifact, format string, args ...any) error
}

// Loop is the cooperative sampling task.
type Loop struct {
	opts   Options
	runner runner
	clock  clock.Clock
	log    *zap.SugaredLogger

	snapshot func() (*proctree.Snapshot, error)
	signal   func(pid int32, sig syscall.Signal) error
	inspect  func(pid int32) (threads int32, cwd string, err error)
}

// New creates a Loop backed by the live process table and real time.
func New(opts Options, r runner, logger *zap.SugaredLogger) *Loop {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Loop{
		opts:     opts,
		runner:   r,
		clock:    clock.New(),
		log:      logger,
		snapshot: proctree.Capture,
		signal:   proctree.SignalProcess,
		inspect:  inspectProcess,
	}
}

// metric is one per-iteration external tool invocation.
type metric struct {
	kind string
	name string
	args []string
}

func (l *Loop) metrics() []metric {
	return []metric{
		{session.KindTop, "top", []string{"-b", "-c", "-n", "1", "-o", "%MEM"}},
		{session.KindTopThreads, "top", []string{"-b", "-H", "-n", "1"}},
		{session.KindNetstat, "netstat", []string{"-pan"}},
		{session.KindNetstatSum, "netstat", []string{"-s"}},
		{session.KindPS, "ps", []string{"-ef"}},
		{session.KindDF, "df", []string{"-hk"}},
		{session.KindMeminfo, "cat", []string{"/proc/meminfo"}},
	}
}

// Run executes iterations until the context is cancelled. It always returns
// nil: cancellation is the loop's only stop condition, not a failure.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Iterate(ctx)

		t := l.clock.Timer(l.opts.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// Iterate performs exactly one sampling pass. Every step is independently
// best-effort: one failing tool never prevents the remaining metrics.
func (l *Loop) Iterate(ctx context.Context) {
	for _, m := range l.metrics() {
		if ctx.Err() != nil {
			return
		}
		if err := l.runner.AppendCommand(ctx, l.artifact(m.kind), m.name, m.args...); err != nil {
			l.log.Debugw("metric collection failed", "kind", m.kind, "error", err)
		}
	}

	if ctx.Err() != nil {
		return
	}
	l.signalRuntimes(ctx)
}

// signalRuntimes finds matched application runtimes, records their dump
// locations, captures their memory maps, and fires the dump-request signal.
func (l *Loop) signalRuntimes(ctx context.Context) {
	snap, err := l.snapshot()
	if err != nil {
		l.log.Debugw("process snapshot failed", "error", err)
		return
	}

	for _, e := range snap.MatchCommand(l.opts.Selector, l.opts.Denylist) {
		if ctx.Err() != nil {
			return
		}
		if e.PID == l.opts.SelfPID {
			continue
		}

		threads, cwd, err := l.inspect(e.PID)
		if err != nil {
			// Vanished between snapshot and inspection; skip quietly.
			l.log.Debugw("process inspection failed", "pid", e.PID, "error", err)
			continue
		}
		if err := l.runner.AppendLine(l.artifact(session.KindDumps),
			"pid=%d threads=%d dumpdir=%s", e.PID, threads, cwd); err != nil {
			l.log.Debugw("dump tracking failed", "pid", e.PID, "error", err)
		}
		if err := l.runner.AppendCommand(ctx, l.artifact(session.KindMaps(e.PID)),
			"cat", fmt.Sprintf("/proc/%d/maps", e.PID)); err != nil {
			l.log.Debugw("memory map capture failed", "pid", e.PID, "error", err)
		}
		// Fire-and-forget: the runtime writes its dump asynchronously and the
		// loop never waits for or verifies it.
		if err := l.signal(e.PID, DumpSignal); err != nil {
			l.log.Debugw("dump-request signal failed", "pid", e.PID, "error", err)
		}
	}
}

func (l *Loop) artifact(kind string) string {
	return session.ArtifactPath(l.opts.Dir, l.opts.Prefix, l.opts.Hostname, kind)
}

// inspectProcess reads the thread count and working directory of pid. The
// working directory is where a JVM-style runtime deposits its dump files.
func inspectProcess(pid int32) (int32, string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return 0, "", err
	}
	threads, err := p.NumThreads()
	if err != nil {
		return 0, "", err
	}
	cwd, err := p.Cwd()
	if err != nil {
		return 0, "", err
	}
	return threads, cwd, nil
}

// ParseInterval converts a configured interval in seconds to a duration,
// clamping to a 1s floor.
func ParseInterval(seconds int) time.Duration {
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}
