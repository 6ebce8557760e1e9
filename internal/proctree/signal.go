package proctree

import (
	"errors"
	"syscall"
)

// GroupOf resolves the process-group id of pid via a live OS query. A process
// that exited since the snapshot returns ok=false.
func GroupOf(pid int32) (int, bool) {
	pgid, err := syscall.Getpgid(int(pid))
	if err != nil {
		return 0, false
	}
	return pgid, true
}

// SignalGroup sends sig to every member of the process group. A group that is
// already gone is success, not failure.
func SignalGroup(pgid int, sig syscall.Signal) error {
	if pgid <= 0 {
		return errors.New("invalid process group id")
	}
	if err := syscall.Kill(-pgid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

// SignalProcess sends sig to a single process, tolerating its absence.
func SignalProcess(pid int32, sig syscall.Signal) error {
	if err := syscall.Kill(int(pid), sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
