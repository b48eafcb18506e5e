package service

import (
	"path/filepath"
	"sort"
	"strconv"

	"github.com/loykin/flowctl/internal/config"
)

// StartMode selects how a role is launched and how its pid record comes to
// exist.
type StartMode int

const (
	// StartDaemon roles are launched through the program's own daemon mode;
	// the program double-forks and writes the record path we hand it.
	StartDaemon StartMode = iota
	// StartDetach roles have no daemon flag; the supervisor spawns them in a
	// new session with redirected streams and writes the record itself.
	StartDetach
	// StartScan roles daemonize but ignore the record-path flag entirely;
	// the pid is found by scanning the user's processes and adopted.
	StartScan
)

// Role describes one entry of the fixed service roster and how the
// supervisor has to treat it. Dispatching on the descriptor keeps the
// special cases out of the lifecycle code.
type Role struct {
	Name           string
	Mode           StartMode
	PerHost        bool     // one instance per host; record is host-qualified
	Subcommand     []string // program arguments selecting the role
	ExtraArgs      []string // role-specific launch flags
	ScanPrefix     string   // StartScan: process name prefix to look for
	StopSubcommand []string // drain-style stop via the program itself; nil means signal
	Variant        config.WorkerVariant
}

// workerName maps a variant key to its service name: "default" is the plain
// worker, anything else is suffixed.
func workerName(variant string) string {
	if variant == "default" {
		return "worker"
	}
	return "worker-" + variant
}

// roster builds the ordered role table for this host. Singleton services
// come first in their fixed order, then worker variants sorted by name so
// batch processing order is stable.
func roster(cfg *config.Config, host string) []Role {
	roles := []Role{
		{
			Name:       "api-server",
			Mode:       StartScan,
			Subcommand: []string{"api-server"},
			ScanPrefix: filepath.Base(cfg.Program) + " api_server",
		},
		{Name: "scheduler", Mode: StartDaemon, Subcommand: []string{"scheduler"}},
		{Name: "triggerer", Mode: StartDaemon, Subcommand: []string{"triggerer"}},
		{Name: "dag-processor", Mode: StartDetach, Subcommand: []string{"dag-processor"}},
	}

	variants := make([]string, 0, len(cfg.Workers))
	for v := range cfg.Workers {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	for _, v := range variants {
		wv := cfg.Workers[v]
		celeryHost := host
		if v != "default" {
			celeryHost = host + "-" + v
		}
		extra := []string{"--celery-hostname", celeryHost}
		if wv.Queues != "" {
			extra = append([]string{"--queues", wv.Queues}, extra...)
		}
		if wv.Concurrency > 0 {
			extra = append(extra, "--concurrency", strconv.Itoa(wv.Concurrency))
		}
		roles = append(roles, Role{
			Name:           workerName(v),
			Mode:           StartDaemon,
			PerHost:        true,
			Subcommand:     []string{"celery", "worker"},
			ExtraArgs:      extra,
			StopSubcommand: []string{"celery", "stop"},
			Variant:        wv,
		})
	}
	return roles
}
