package service

import (
	"fmt"

	"github.com/loykin/flowctl/internal/detector"
	"github.com/loykin/flowctl/internal/history"
	"github.com/loykin/flowctl/internal/metrics"
	"github.com/loykin/flowctl/internal/poll"
)

// Stop terminates a role's process and waits, bounded, for it to exit.
// Stopping an identity with no live process is a no-op, not an error.
// When the process outlives the timeout the record is kept on purpose:
// removing it would hide the leaked process from the next status report.
func (s *Supervisor) Stop(r Role) error {
	id := s.Identity(r)
	pid, err := s.Check(r)
	if err != nil {
		return err
	}
	if pid == 0 {
		return nil
	}

	if len(r.StopSubcommand) > 0 {
		err = s.stopDrained(r)
	} else {
		err = s.stopSignaled(r, pid)
	}
	if err != nil {
		metrics.IncStopFailure(id.Label())
		return err
	}
	s.log.Info("service stopped", "service", id.Label(), "pid", pid)
	metrics.IncStop(id.Label())
	s.event(history.EventStop, id, pid)
	return nil
}

// stopSignaled sends the graceful-stop signal and polls liveness until the
// process exits or the stop timeout elapses.
func (s *Supervisor) stopSignaled(r Role, pid int) error {
	id := s.Identity(r)
	if err := detector.Terminate(pid); err != nil {
		// The process can vanish between the check and the signal.
		if alive, probeErr := detector.Alive(pid); probeErr == nil && !alive {
			return s.store.Remove(id)
		}
		return fmt.Errorf("signal %s (pid=%d): %w", id.Label(), pid, err)
	}
	exited := poll.Until(
		poll.Attempts(s.cfg.StopTimeout, s.cfg.PollInterval),
		s.cfg.PollInterval,
		func() bool {
			alive, err := detector.Alive(pid)
			return err == nil && !alive
		},
	)
	if !exited {
		return fmt.Errorf("%w: %s (pid=%d)", ErrStopTimeout, id.Label(), pid)
	}
	return s.store.Remove(id)
}

// stopDrained stops a role through the program's own stop subcommand, which
// drains in-flight work and removes its own record on clean shutdown. The
// wait is therefore on the record disappearing, with the longer drain
// timeout.
func (s *Supervisor) stopDrained(r Role) error {
	id := s.Identity(r)
	args := append([]string{}, r.StopSubcommand...)
	args = append(args, "--pid", s.store.Locate(id))
	if err := s.run(args); err != nil {
		return fmt.Errorf("stop %s: %w", id.Label(), err)
	}
	gone := poll.Until(
		poll.Attempts(s.cfg.DrainTimeout, s.cfg.PollInterval),
		s.cfg.PollInterval,
		func() bool { return !s.store.Exists(id) },
	)
	if !gone {
		return fmt.Errorf("%w: %s", ErrStopTimeout, id.Label())
	}
	return nil
}
