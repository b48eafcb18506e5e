package service

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/loykin/flowctl/internal/history"
	"github.com/loykin/flowctl/internal/metrics"
	"github.com/loykin/flowctl/internal/poll"
)

// Start launches a role and returns the new pid once its record is
// confirmed. Starting an identity that is already running fails fast with
// ErrAlreadyRunning; the caller has to stop it first.
func (s *Supervisor) Start(r Role) (int, error) {
	id := s.Identity(r)
	pid, err := s.Check(r)
	if err != nil {
		return 0, err
	}
	if pid > 0 {
		return 0, fmt.Errorf("%w: %s (pid=%d)", ErrAlreadyRunning, id.Label(), pid)
	}

	switch r.Mode {
	case StartDetach:
		pid, err = s.startDetached(r)
	case StartScan:
		pid, err = s.startScanned(r)
	default:
		pid, err = s.startDaemonized(r)
	}
	if err != nil {
		metrics.IncStartFailure(id.Label())
		return 0, err
	}
	s.log.Info("service started", "service", id.Label(), "pid", pid)
	metrics.IncStart(id.Label())
	s.event(history.EventStart, id, pid)
	return pid, nil
}

// launchArgs assembles the daemon-mode invocation: role subcommand, daemon
// and record flags, and the per-identity log/stdout/stderr paths.
func (s *Supervisor) launchArgs(r Role) []string {
	args := append([]string{}, r.Subcommand...)
	args = append(args, "--daemon")
	if r.Mode == StartScan {
		// The role ignores --pid and --log-file; they are passed anyway so a
		// future version of the program that honors them just works.
		args = append(args, "--access-logfile", s.servicePath(r, "access"))
	}
	args = append(args,
		"--pid", s.store.Locate(s.Identity(r)),
		"--log-file", s.servicePath(r, "log"),
		"--stdout", s.servicePath(r, "out"),
		"--stderr", s.servicePath(r, "err"),
	)
	args = append(args, r.ExtraArgs...)
	return args
}

// run executes the program synchronously with the service home as working
// directory and the base directory exported. Daemon-mode invocations return
// as soon as the program has forked itself into the background.
func (s *Supervisor) run(args []string) error {
	// #nosec G204 -- program and args come from the static roster and config
	cmd := exec.Command(s.cfg.Program, args...)
	cmd.Dir = s.cfg.Home
	cmd.Env = s.cfg.ChildEnv()
	cmd.Stderr = os.Stderr // launch-time errors are the only channel left
	return cmd.Run()
}

// startDaemonized launches a role through the program's own daemon mode and
// waits for the record the program writes.
func (s *Supervisor) startDaemonized(r Role) (int, error) {
	id := s.Identity(r)
	if err := s.run(s.launchArgs(r)); err != nil {
		return 0, fmt.Errorf("launch %s: %w", id.Label(), err)
	}
	appeared := poll.Until(
		poll.Attempts(s.cfg.StartWindow, s.cfg.PollInterval),
		s.cfg.PollInterval,
		func() bool { return s.store.Exists(id) },
	)
	if !appeared {
		// The daemon may still be mid-initialization; probe once more before
		// declaring failure so a slow start is not reported as a leak.
		pid, err := s.Check(r)
		if err != nil {
			return 0, err
		}
		if pid > 0 {
			return pid, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrStartTimeout, id.Label())
	}
	pid, ok, err := s.store.Read(id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrStartTimeout, id.Label())
	}
	return pid, nil
}

// startScanned launches a role whose record flag the program ignores, then
// finds the process by name scan and adopts its pid into the store.
func (s *Supervisor) startScanned(r Role) (int, error) {
	id := s.Identity(r)
	if err := s.run(s.launchArgs(r)); err != nil {
		return 0, fmt.Errorf("launch %s: %w", id.Label(), err)
	}
	var pid int
	var scanErr error
	found := poll.Until(
		poll.Attempts(s.cfg.StartWindow, s.cfg.PollInterval),
		s.cfg.PollInterval,
		func() bool {
			p, err := s.scan(r.ScanPrefix)
			if err != nil {
				scanErr = err
				return false
			}
			scanErr = nil
			pid = p
			return p > 0
		},
	)
	if !found {
		// Drop any half-written record so status does not lie.
		_ = s.store.Remove(id)
		if scanErr != nil {
			return 0, fmt.Errorf("scan for %s: %w", id.Label(), scanErr)
		}
		return 0, fmt.Errorf("%w: %s", ErrStartTimeout, id.Label())
	}
	if err := s.store.Write(id, pid); err != nil {
		return 0, err
	}
	return pid, nil
}

// startDetached spawns a role that has no daemon mode of its own: new
// session, hang-up immune, streams appended to the per-identity out/err
// files, working directory fixed to the service home. The record is written
// by the supervisor as soon as the child exists.
func (s *Supervisor) startDetached(r Role) (int, error) {
	id := s.Identity(r)

	args := append([]string{}, r.Subcommand...)
	args = append(args, "--log-file", s.servicePath(r, "log"))
	args = append(args, r.ExtraArgs...)

	// #nosec G204 -- program and args come from the static roster and config
	cmd := exec.Command(s.cfg.Program, args...)
	cmd.Dir = s.cfg.Home
	cmd.Env = s.cfg.ChildEnv()
	cmd.Stdin = nil

	out, err := openAppend(s.servicePath(r, "out"))
	if err != nil {
		return 0, err
	}
	errFile, err := openAppend(s.servicePath(r, "err"))
	if err != nil {
		_ = out.Close()
		return 0, err
	}
	cmd.Stdout = out
	cmd.Stderr = errFile
	setDetachAttrs(cmd)

	startErr := cmd.Start()
	// The child holds its own descriptors; the parent's copies close now.
	_ = out.Close()
	_ = errFile.Close()
	if startErr != nil {
		return 0, fmt.Errorf("spawn %s: %w", id.Label(), startErr)
	}

	pid := cmd.Process.Pid
	if err := s.store.Write(id, pid); err != nil {
		return 0, err
	}
	// The supervisor does not parent this process any further.
	_ = cmd.Process.Release()
	return pid, nil
}

func openAppend(path string) (*os.File, error) {
	// #nosec G304 -- path derives from the roster inside the services dir
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}
