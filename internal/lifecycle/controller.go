// Package lifecycle owns the diagnostic-session state machine: starting the
// detached capture and sampling processes, tearing the whole owned process
// tree down, reporting status, and packaging results.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vburojevic/hostdiag/internal/config"
	"github.com/vburojevic/hostdiag/internal/proctree"
	"github.com/vburojevic/hostdiag/internal/session"
	"github.com/vburojevic/hostdiag/internal/toolrun"
)

// State of the controller's session machine.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// StartGrace is how long start waits before returning, so an immediately
// following stop still captures at least one sampling data point.
const StartGrace = 3 * time.Second

// TeardownDelay separates the interrupt signal from the terminate signal
// during process-group teardown.
const TeardownDelay = 2 * time.Second

// runner is the subset of toolrun.Runner the controller needs.
type runner interface {
	AppendCommand(ctx context.Context, artifact, name string, args ...string) error
	StartDetached(artifact, name string, args ...string) (pid int32, pgid int, err error)
}

// Controller orchestrates start, stop and status for one working directory.
type Controller struct {
	cfg      *config.Config
	dir      string
	hostname string
	store    *session.Store
	runner   runner
	clock    clock.Clock
	log      *zap.SugaredLogger

	snapshot    func() (*proctree.Snapshot, error)
	signalGroup func(pgid int, sig syscall.Signal) error
	groupOf     func(pid int32) (int, bool)
	executable  func() (string, error)
}

// New creates a Controller rooted at dir. logger may be nil.
func New(cfg *config.Config, dir, hostname string, logger *zap.SugaredLogger) *Controller {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Controller{
		cfg:         cfg,
		dir:         dir,
		hostname:    hostname,
		store:       session.NewStore(dir),
		runner:      toolrun.NewRunner(logger),
		clock:       clock.New(),
		log:         logger,
		snapshot:    proctree.Capture,
		signalGroup: proctree.SignalGroup,
		groupOf:     proctree.GroupOf,
		executable:  os.Executable,
	}
}

// target is a discovered managed process with its live process-group id.
type target struct {
	Role    string
	PID     int32
	PGID    int
	Cmdline string
}

// Start begins a new session: any prior session still alive is stopped first
// (idempotency recovery, not an error), then the packet-capture tool and the
// sampling-loop daemon are spawned detached, recorded, and a short grace
// period elapses before returning.
func (c *Controller) Start(ctx context.Context) (*session.Session, error) {
	if prior, _ := c.store.Load(); prior != nil {
		if targets, _ := c.discover(prior); len(targets) > 0 {
			c.log.Debugw("prior session still alive, stopping it first", "marker", prior.Marker)
			if err := c.Stop(ctx); err != nil {
				return nil, fmt.Errorf("stop prior session: %w", err)
			}
		}
	}

	s := session.New(c.dir, c.cfg.Prefix, c.hostname, c.cfg.Interval, c.clock.Now())

	if pid, pgid, err := c.spawnCapture(s); err != nil {
		// Capture is best-effort: a missing tcpdump must not prevent sampling.
		c.log.Debugw("packet capture spawn failed", "error", err)
	} else {
		s.Record(session.RoleCapture, pid, pgid)
	}

	pid, pgid, err := c.spawnSampler(s)
	if err != nil {
		// A failed start must not leave the already-spawned capture group
		// behind: nothing would ever reap it without a session record.
		c.teardownGroups(lo.Uniq(lo.Map(s.Processes, func(mp session.ManagedProcess, _ int) int { return mp.PGID })))
		return nil, fmt.Errorf("spawn sampling loop: %w", err)
	}
	s.Record(session.RoleSampler, pid, pgid)

	if err := c.store.Save(s); err != nil {
		return nil, fmt.Errorf("persist session state: %w", err)
	}

	c.clock.Sleep(StartGrace)
	return s, nil
}

// spawnCapture launches the packet-capture tool in its own process group.
// The marker rides in the -w path so the capture command line carries it.
func (c *Controller) spawnCapture(s *session.Session) (int32, int, error) {
	cap := c.cfg.Capture
	return c.runner.StartDetached(s.Artifact(session.KindCapture), "tcpdump",
		"-i", cap.Interface,
		"-C", strconv.Itoa(cap.SizeMB),
		"-W", strconv.Itoa(cap.Count),
		"-w", s.CapturePath(),
	)
}

// spawnSampler re-execs the own binary with the hidden sampler command.
func (c *Controller) spawnSampler(s *session.Session) (int32, int, error) {
	exe, err := c.executable()
	if err != nil {
		return 0, 0, err
	}
	return c.runner.StartDetached(s.Artifact(session.KindSampler), exe,
		"sampler",
		"--marker", s.Marker,
		"--dir", s.Dir,
		"--prefix", s.Prefix,
		"--hostname", s.Hostname,
		"--interval", strconv.Itoa(s.Interval),
	)
}

// Stop tears down every owned process group, then gathers the one-shot
// system-fact battery. Safe to call when nothing is running: teardown becomes
// a no-op but the battery still runs. Best-effort step failures never bubble
// past this boundary.
func (c *Controller) Stop(ctx context.Context) error {
	s, err := c.store.Load()
	if err != nil && err != session.ErrNoSession {
		return err
	}

	if s != nil {
		targets, err := c.discover(s)
		if err != nil {
			c.log.Debugw("process discovery failed", "error", err)
		}
		c.teardownGroups(groupIDs(targets))
	}

	// Post-stop system facts, always after teardown so they reflect the host
	// without the collection processes.
	c.gatherSystemFacts(ctx)
	return nil
}

// teardownGroups signals each process group with the interrupt signal, waits
// out the teardown delay, then terminates. Failures are logged, not returned.
func (c *Controller) teardownGroups(pgids []int) {
	for _, pgid := range pgids {
		c.log.Debugw("stopping process group", "pgid", pgid)
		if err := c.signalGroup(pgid, syscall.SIGINT); err != nil {
			c.log.Debugw("interrupt signal failed", "pgid", pgid, "error", err)
		}
		c.clock.Sleep(TeardownDelay)
		if err := c.signalGroup(pgid, syscall.SIGTERM); err != nil {
			c.log.Debugw("terminate signal failed", "pgid", pgid, "error", err)
		}
	}
}

// gatherSystemFacts appends the fixed battery of one-time system snapshots.
// Each item is independently best-effort.
func (c *Controller) gatherSystemFacts(ctx context.Context) {
	facts := []struct {
		kind string
		name string
		args []string
	}{
		{session.KindUname, "uname", []string{"-a"}},
		{session.KindUptime, "uptime", nil},
		{session.KindMeminfo, "cat", []string{"/proc/meminfo"}},
		{session.KindCPUInfo, "cat", []string{"/proc/cpuinfo"}},
		{session.KindNetstat, "netstat", []string{"-pan"}},
		{session.KindPS, "ps", []string{"-ef"}},
		{session.KindTopCPU, "top", []string{"-b", "-c", "-n", "1", "-o", "%CPU"}},
		{session.KindDF, "df", []string{"-hk"}},
		{session.KindDmesg, "dmesg", nil},
	}
	for _, f := range facts {
		if ctx.Err() != nil {
			return
		}
		if err := c.runner.AppendCommand(ctx, c.artifact(f.kind), f.name, f.args...); err != nil {
			c.log.Debugw("system fact collection failed", "kind", f.kind, "error", err)
		}
	}
}

// discover resolves the session's live managed processes. The persisted
// registry is authoritative; a marker sweep over the process table picks up
// descendants or processes whose record was lost. Processes that exited
// between snapshot and group resolution are skipped.
func (c *Controller) discover(s *session.Session) ([]target, error) {
	snap, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	var targets []target
	seen := make(map[int32]bool)

	for _, mp := range s.Processes {
		e, ok := snap.Lookup(mp.PID)
		if !ok {
			continue
		}
		// Guard against pid reuse: the capture path or the sampler flags
		// embed the marker, so a recorded pid that no longer mentions it is
		// some unrelated process.
		if mp.Role == session.RoleSampler || mp.Role == session.RoleCapture {
			if !strings.Contains(e.Cmdline, s.Marker) {
				continue
			}
		}
		pgid := mp.PGID
		if live, ok := c.groupOf(mp.PID); ok {
			pgid = live
		}
		targets = append(targets, target{Role: mp.Role, PID: mp.PID, PGID: pgid, Cmdline: e.Cmdline})
		seen[mp.PID] = true
	}

	for _, e := range snap.MatchMarker(s.Marker) {
		if seen[e.PID] {
			continue
		}
		pgid, ok := c.groupOf(e.PID)
		if !ok {
			continue
		}
		targets = append(targets, target{Role: "orphan", PID: e.PID, PGID: pgid, Cmdline: e.Cmdline})
		seen[e.PID] = true
	}
	return targets, nil
}

// groupIDs returns the deduplicated process-group ids of targets.
func groupIDs(targets []target) []int {
	return lo.Uniq(lo.Map(targets, func(t target, _ int) int { return t.PGID }))
}

func (c *Controller) artifact(kind string) string {
	return session.ArtifactPath(c.dir, c.cfg.Prefix, c.hostname, kind)
}
