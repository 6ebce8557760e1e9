package session

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Artifact kinds. Each kind maps to exactly one output file per session and
// is written by exactly one producer (the sampler loop or the one-shot
// battery run by stop).
const (
	KindTop        = "top"        // top listing sorted by memory usage
	KindTopThreads = "topthreads" // per-thread top listing
	KindTopCPU     = "topcpu"     // one-shot top listing sorted by CPU
	KindNetstat    = "netstat"    // connection table
	KindNetstatSum = "netstats"   // protocol statistics
	KindPS         = "ps"         // process list
	KindDF         = "df"         // disk usage
	KindMeminfo    = "meminfo"    // memory info
	KindDumps      = "dumps"      // dump-tracking records for signaled runtimes
	KindUname      = "uname"
	KindUptime     = "uptime"
	KindCPUInfo    = "cpuinfo"
	KindDmesg      = "dmesg"
	KindCapture    = "capture" // packet-capture tool stdout/stderr
	KindSampler    = "sampler" // sampling-loop daemon stdout/stderr
)

// KindMaps returns the artifact kind for a per-process memory-map snapshot.
func KindMaps(pid int32) string {
	return fmt.Sprintf("maps.%d", pid)
}

// Role identifies what a managed process was spawned for.
const (
	RoleCapture = "capture"
	RoleSampler = "sampler"
)

// ManagedProcess is one OS process spawned as part of a session. The pid and
// process-group id are recorded at spawn time; liveness is always re-checked
// against the live process table before acting on either.
type ManagedProcess struct {
	Role string `json:"role"`
	PID  int32  `json:"pid"`
	PGID int    `json:"pgid"`
}

// Session is the logical unit of one diagnostic run. All processes spawned
// for the session carry the marker token in their command line, and all
// artifact files share the session's name prefix.
type Session struct {
	Marker    string           `json:"marker"`
	Hostname  string           `json:"hostname"`
	Prefix    string           `json:"prefix"`
	Dir       string           `json:"dir"`
	Interval  int              `json:"interval_seconds"`
	StartedAt time.Time        `json:"started_at"`
	Processes []ManagedProcess `json:"processes"`
}

// New creates a session rooted at dir with a fresh marker token.
func New(dir, prefix, hostname string, interval int, now time.Time) *Session {
	return &Session{
		Marker:    NewMarker(now),
		Hostname:  hostname,
		Prefix:    prefix,
		Dir:       dir,
		Interval:  interval,
		StartedAt: now,
	}
}

// NewMarker builds a marker token unique enough that no unrelated process
// command line will contain it by accident.
func NewMarker(now time.Time) string {
	return fmt.Sprintf("hostdiag-%s-%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// FileBase returns the "<prefix>.<hostname>" stem shared by every artifact of
// the session.
func (s *Session) FileBase() string {
	return FileBase(s.Prefix, s.Hostname)
}

// Artifact returns the path of the artifact file for the given kind.
func (s *Session) Artifact(kind string) string {
	return ArtifactPath(s.Dir, s.Prefix, s.Hostname, kind)
}

// CapturePath returns the packet-capture output path. The marker is embedded
// in the file name so the capture tool's command line carries it.
func (s *Session) CapturePath() string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s.%s.pcap", s.FileBase(), s.Marker))
}

// ArchivePath returns the timestamped archive path for a collection taken at ts.
func (s *Session) ArchivePath(ts time.Time) string {
	return ArchivePath(s.Dir, s.Prefix, s.Hostname, ts)
}

// Record adds a spawned process to the session's registry.
func (s *Session) Record(role string, pid int32, pgid int) {
	s.Processes = append(s.Processes, ManagedProcess{Role: role, PID: pid, PGID: pgid})
}

// FileBase returns the artifact file stem for a prefix/hostname pair.
func FileBase(prefix, hostname string) string {
	return prefix + "." + hostname
}

// ArtifactPath builds the path of a single artifact file.
func ArtifactPath(dir, prefix, hostname, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.out", FileBase(prefix, hostname), kind))
}

// ArchivePath builds the timestamped archive path for a prefix/hostname pair.
func ArchivePath(dir, prefix, hostname string, ts time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.tar.gz", FileBase(prefix, hostname), ts.Format("20060102.150405")))
}
