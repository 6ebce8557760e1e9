package lifecycle

import (
	"strings"

	"github.com/vburojevic/hostdiag/internal/session"
)

// StatusEntry describes one live managed process and its rendered descendant
// tree, for operator inspection.
type StatusEntry struct {
	Role    string
	PID     int32
	PGID    int
	Cmdline string
	Tree    string
}

// Status enumerates the session's live managed processes. It is read-only and
// produces no side effects. An empty entry list means no diagnostics are
// running.
func (c *Controller) Status() (State, string, []StatusEntry, error) {
	s, err := c.store.Load()
	if err == session.ErrNoSession {
		return Idle, "", nil, nil
	}
	if err != nil {
		return Idle, "", nil, err
	}

	targets, err := c.discover(s)
	if err != nil {
		return Idle, s.Marker, nil, err
	}
	if len(targets) == 0 {
		return Idle, s.Marker, nil, nil
	}

	snap, err := c.snapshot()
	if err != nil {
		return Running, s.Marker, nil, err
	}

	entries := make([]StatusEntry, 0, len(targets))
	for _, t := range targets {
		var tree strings.Builder
		snap.Render(&tree, t.PID)
		entries = append(entries, StatusEntry{
			Role:    t.Role,
			PID:     t.PID,
			PGID:    t.PGID,
			Cmdline: t.Cmdline,
			Tree:    tree.String(),
		})
	}
	return Running, s.Marker, entries, nil
}
