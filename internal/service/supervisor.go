package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/flowctl/internal/config"
	"github.com/loykin/flowctl/internal/detector"
	"github.com/loykin/flowctl/internal/history"
	"github.com/loykin/flowctl/internal/metrics"
	"github.com/loykin/flowctl/internal/pidfile"
)

// Supervisor ties the role roster to the pid record store and drives the
// lifecycle of every service identity on this host. It holds no state about
// the supervised processes beyond the records; everything is re-derived from
// the store and liveness probes on each call.
type Supervisor struct {
	cfg   *config.Config
	store pidfile.Store
	log   *slog.Logger
	sink  history.Sink // optional audit sink, may be nil
	host  string
	roles []Role
	scan  func(prefix string) (int, error)
}

// New builds a Supervisor for the local host.
func New(cfg *config.Config, log *slog.Logger, sink history.Sink) *Supervisor {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		cfg:   cfg,
		store: pidfile.Store{Dir: cfg.ServicesDir()},
		log:   log,
		sink:  sink,
		host:  host,
		roles: roster(cfg, host),
		scan:  detector.FindByPrefix,
	}
}

// Host returns the local host qualifier used for per-host identities.
func (s *Supervisor) Host() string { return s.host }

// Config returns the loaded configuration.
func (s *Supervisor) Config() *config.Config { return s.cfg }

// Roles returns the ordered roster for this host.
func (s *Supervisor) Roles() []Role { return s.roles }

// Singletons returns the host-singleton subset of the roster, the default
// target of start/stop with no arguments.
func (s *Supervisor) Singletons() []Role {
	var out []Role
	for _, r := range s.roles {
		if !r.PerHost {
			out = append(out, r)
		}
	}
	return out
}

// Lookup resolves a service name token against the roster.
func (s *Supervisor) Lookup(name string) (Role, error) {
	for _, r := range s.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return Role{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
}

// Identity returns the record key for a role, host-qualified when the role
// runs one instance per host.
func (s *Supervisor) Identity(r Role) pidfile.Identity {
	id := pidfile.Identity{Name: r.Name}
	if r.PerHost {
		id.Host = s.host
	}
	return id
}

// Check returns the live pid for a role, or 0 when the identity is down.
// A record whose process no longer exists is removed here; this is the only
// path that heals staleness, and it runs before every start/stop decision.
// Roles with a scan fallback adopt an untracked process into the store.
func (s *Supervisor) Check(r Role) (int, error) {
	id := s.Identity(r)
	pid, ok, err := s.store.Read(id)
	if err != nil {
		return 0, err
	}
	if ok {
		alive, err := detector.Alive(pid)
		if err != nil {
			return 0, fmt.Errorf("probe pid %d for %s: %w", pid, id.Label(), err)
		}
		if alive {
			return pid, nil
		}
		s.log.Warn("removing stale pid record", "service", id.Label(), "pid", pid)
		metrics.IncStale(id.Label())
		s.event(history.EventStale, id, pid)
		if err := s.store.Remove(id); err != nil {
			return 0, err
		}
	}
	if r.Mode == StartScan {
		pid, err := s.scan(r.ScanPrefix)
		if err != nil {
			return 0, err
		}
		if pid > 0 {
			// Found out-of-band; adopt it so later checks use the fast path.
			if err := s.store.Write(id, pid); err != nil {
				return 0, err
			}
			s.log.Info("adopted untracked process", "service", id.Label(), "pid", pid)
			return pid, nil
		}
	}
	return 0, nil
}

// Status is one line of the report: a labeled identity and its liveness.
type Status struct {
	Label string `json:"label"`
	Up    bool   `json:"up"`
	PID   int    `json:"pid,omitempty"`
}

// Line renders the status the way the CLI prints it.
func (st Status) Line() string {
	if st.Up {
		return fmt.Sprintf("%s up (pid=%d)", st.Label, st.PID)
	}
	return st.Label + " down"
}

// Statuses reports every roster identity in order. Read-only apart from the
// staleness healing inherent in Check.
func (s *Supervisor) Statuses() ([]Status, error) {
	out := make([]Status, 0, len(s.roles))
	for _, r := range s.roles {
		pid, err := s.Check(r)
		if err != nil {
			return nil, err
		}
		out = append(out, Status{Label: s.Identity(r).Label(), Up: pid > 0, PID: pid})
	}
	return out, nil
}

// servicePath returns a per-identity file in the services directory, e.g.
// scheduler.log or worker-gpu-h1.out.
func (s *Supervisor) servicePath(r Role, ext string) string {
	stem := r.Name
	if r.PerHost {
		stem += "-" + s.host
	}
	return filepath.Join(s.cfg.ServicesDir(), stem+"."+ext)
}

// event ships an audit record to the history sink, if one is configured.
// Sink failures are logged and never fail the operation itself.
func (s *Supervisor) event(t history.EventType, id pidfile.Identity, pid int) {
	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e := history.Event{
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Service:    id.Label(),
		Host:       s.host,
		PID:        pid,
	}
	if err := s.sink.Send(ctx, e); err != nil {
		s.log.Warn("history sink send failed", "service", id.Label(), "error", err)
	}
}
