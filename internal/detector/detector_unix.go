//go:build !windows

package detector

import (
	"errors"
	"syscall"
)

// Alive reports whether a process with the given pid exists and is reachable
// by this user. EPERM means the pid exists but belongs to another user; it is
// reported alive so the supervisor never tries to manage it. Probe failures
// other than ESRCH/EPERM are returned to the caller.
func Alive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}
	err := syscall.Kill(pid, 0)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, syscall.ESRCH):
		return false, nil
	case errors.Is(err, syscall.EPERM):
		return true, nil
	default:
		return false, err
	}
}

// Terminate sends the graceful-stop signal to pid.
func Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// Kill sends an unconditional kill to pid. Used only by tests and as a
// last-resort escalation; the supervisor's stop path is SIGTERM only.
func Kill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
