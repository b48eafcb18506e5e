package main

import (
	"testing"

	"github.com/loykin/flowctl/internal/config"
	"github.com/loykin/flowctl/internal/service"
)

func newTestSupervisor(t *testing.T) *service.Supervisor {
	t.Helper()
	cfg, err := config.LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return service.New(cfg, nil, nil)
}

func TestResolveRolesDefaultsToSingletons(t *testing.T) {
	sup := newTestSupervisor(t)
	roles, err := resolveRoles(sup, nil)
	if err != nil {
		t.Fatalf("resolveRoles: %v", err)
	}
	want := []string{"api-server", "scheduler", "triggerer", "dag-processor"}
	if len(roles) != len(want) {
		t.Fatalf("expected %d roles, got %d", len(want), len(roles))
	}
	for i, w := range want {
		if roles[i].Name != w {
			t.Fatalf("role %d: %q, want %q", i, roles[i].Name, w)
		}
		if roles[i].PerHost {
			t.Fatalf("per-host role %q in singleton default set", roles[i].Name)
		}
	}
}

func TestResolveRolesExplicit(t *testing.T) {
	sup := newTestSupervisor(t)
	roles, err := resolveRoles(sup, []string{"worker-gpu", "scheduler"})
	if err != nil {
		t.Fatalf("resolveRoles: %v", err)
	}
	if len(roles) != 2 || roles[0].Name != "worker-gpu" || roles[1].Name != "scheduler" {
		t.Fatalf("caller order not preserved: %+v", roles)
	}
}

func TestResolveRolesUnknown(t *testing.T) {
	sup := newTestSupervisor(t)
	if _, err := resolveRoles(sup, []string{"scheduler", "bogus"}); err == nil {
		t.Fatalf("unknown token accepted")
	}
}

func TestBuildRootCommands(t *testing.T) {
	root := buildRoot()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"status", "start", "stop", "serve"} {
		if !names[want] {
			t.Fatalf("command %q not registered", want)
		}
	}
}
