package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// StateFileName is the per-directory session-state record. Exactly one active
// session is supported per working directory; the presence of this file is
// what start/stop/status key off.
const StateFileName = ".hostdiag-session.json"

// ErrNoSession is returned by Load when no session record exists.
var ErrNoSession = errors.New("no active session")

// Store persists the session record for one working directory.
type Store struct {
	path string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, StateFileName)}
}

// Path returns the state file location.
func (st *Store) Path() string { return st.path }

// Load reads the session record, returning ErrNoSession when none exists.
func (st *Store) Load() (*Session, error) {
	b, err := os.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the session record atomically so a crash mid-write never
// leaves a torn state file behind.
func (st *Store) Save(s *Session) error {
	if s == nil {
		return errors.New("session is required")
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return renameio.WriteFile(st.path, b, 0o644)
}

// Delete removes the session record. A missing record is not an error.
func (st *Store) Delete() error {
	if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
