// Package proctree identifies which live OS processes belong to a diagnostic
// session and renders their descendant trees. All queries operate on a
// point-in-time snapshot of the whole process table, so a tree walk never
// observes an inconsistent parent/child graph under process churn.
package proctree

import (
	"fmt"
	"io"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// maxDepth caps tree rendering. Real process trees cannot cycle, but a pid
// reused mid-churn can produce a stale edge; the cap bounds the damage.
const maxDepth = 32

// Entry is one row of the process-table snapshot.
type Entry struct {
	PID     int32
	PPID    int32
	Cmdline string
}

// Snapshot is an immutable view of the process table taken at one instant.
type Snapshot struct {
	byPID    map[int32]Entry
	children map[int32][]int32
	order    []int32
}

// NewSnapshot builds a Snapshot from explicit entries. Tests use this; live
// callers use Capture.
func NewSnapshot(entries []Entry) *Snapshot {
	s := &Snapshot{
		byPID:    make(map[int32]Entry, len(entries)),
		children: make(map[int32][]int32),
	}
	for _, e := range entries {
		if _, dup := s.byPID[e.PID]; dup {
			continue
		}
		s.byPID[e.PID] = e
		s.children[e.PPID] = append(s.children[e.PPID], e.PID)
		s.order = append(s.order, e.PID)
	}
	return s
}

// Capture snapshots the live process table. Processes that exit between
// enumeration and attribute reads are skipped, not errors.
func Capture() (*Snapshot, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{PID: p.Pid, PPID: ppid, Cmdline: cmdline})
	}
	return NewSnapshot(entries), nil
}

// Alive reports whether pid was present when the snapshot was taken.
func (s *Snapshot) Alive(pid int32) bool {
	_, ok := s.byPID[pid]
	return ok
}

// Lookup returns the snapshot entry for pid.
func (s *Snapshot) Lookup(pid int32) (Entry, bool) {
	e, ok := s.byPID[pid]
	return e, ok
}

// MatchMarker returns every process whose command line contains the marker
// token, deduplicated, in enumeration order.
func (s *Snapshot) MatchMarker(marker string) []Entry {
	if marker == "" {
		return nil
	}
	var out []Entry
	for _, pid := range s.order {
		e := s.byPID[pid]
		if strings.Contains(e.Cmdline, marker) {
			out = append(out, e)
		}
	}
	return out
}

// MatchCommand returns every process whose command line contains selector and
// none of the exclude substrings.
func (s *Snapshot) MatchCommand(selector string, exclude []string) []Entry {
	if selector == "" {
		return nil
	}
	var out []Entry
next:
	for _, pid := range s.order {
		e := s.byPID[pid]
		if !strings.Contains(e.Cmdline, selector) {
			continue
		}
		for _, x := range exclude {
			if x != "" && strings.Contains(e.Cmdline, x) {
				continue next
			}
		}
		out = append(out, e)
	}
	return out
}

// Render writes the descendant tree rooted at pid, depth-first, one process
// per line indented by depth. Sibling order follows enumeration order.
func (s *Snapshot) Render(w io.Writer, root int32) {
	visited := make(map[int32]bool)
	s.render(w, root, 0, visited)
}

func (s *Snapshot) render(w io.Writer, pid int32, depth int, visited map[int32]bool) {
	if depth > maxDepth || visited[pid] {
		return
	}
	visited[pid] = true
	e, ok := s.byPID[pid]
	if !ok {
		return
	}
	fmt.Fprintf(w, "%s%d %s\n", strings.Repeat("  ", depth), e.PID, e.Cmdline)
	for _, child := range s.children[pid] {
		s.render(w, child, depth+1, visited)
	}
}
