// Package flowctl supervises the long-running services of a workflow
// deployment on the local host: pid-file-backed identity tracking, detached
// launch, stale-record healing and bounded-wait termination.
package flowctl

import (
	"log/slog"
	"net/http"

	"github.com/loykin/flowctl/internal/config"
	"github.com/loykin/flowctl/internal/history"
	"github.com/loykin/flowctl/internal/history/factory"
	"github.com/loykin/flowctl/internal/pidfile"
	iapi "github.com/loykin/flowctl/internal/server"
	"github.com/loykin/flowctl/internal/service"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type WorkerVariant = config.WorkerVariant

type Identity = pidfile.Identity

type Role = service.Role

type Status = service.Status

type HistorySink = history.Sink

// Errors callers are expected to branch on.
var (
	ErrAlreadyRunning = service.ErrAlreadyRunning
	ErrStartTimeout   = service.ErrStartTimeout
	ErrStopTimeout    = service.ErrStopTimeout
	ErrUnknownService = service.ErrUnknownService
)

// Supervisor is a thin facade over internal/service.Supervisor providing a
// stable public API for embedding.
type Supervisor struct{ inner *service.Supervisor }

// LoadConfig resolves the base directory and reads the optional settings
// file.
func LoadConfig() (*Config, error) { return config.Load() }

// LoadConfigFrom reads configuration for an explicit base directory.
func LoadConfigFrom(home string) (*Config, error) { return config.LoadFrom(home) }

// NewHistorySink builds an audit sink from a DSN (sqlite path, postgres://
// or clickhouse://).
func NewHistorySink(dsn, baseDir string) (HistorySink, error) {
	return factory.NewSinkFromDSN(dsn, baseDir)
}

// New builds a Supervisor. Logger and sink may be nil.
func New(cfg *Config, log *slog.Logger, sink HistorySink) *Supervisor {
	return &Supervisor{inner: service.New(cfg, log, sink)}
}

func (s *Supervisor) Host() string       { return s.inner.Host() }
func (s *Supervisor) Roles() []Role      { return s.inner.Roles() }
func (s *Supervisor) Singletons() []Role { return s.inner.Singletons() }

func (s *Supervisor) Lookup(name string) (Role, error) { return s.inner.Lookup(name) }
func (s *Supervisor) Check(r Role) (int, error)        { return s.inner.Check(r) }
func (s *Supervisor) Start(r Role) (int, error)        { return s.inner.Start(r) }
func (s *Supervisor) Stop(r Role) error                { return s.inner.Stop(r) }
func (s *Supervisor) Statuses() ([]Status, error)      { return s.inner.Statuses() }

// Handler exposes the HTTP surface for embedding in an existing server.
func (s *Supervisor) Handler() http.Handler {
	return iapi.NewRouter(s.inner).Handler()
}
