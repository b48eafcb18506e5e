package service

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/loykin/flowctl/internal/config"
	"github.com/loykin/flowctl/internal/logger"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix-only test")
	}
}

// stubProgram emulates the external workflow tool: daemon-mode launches
// background a sleeper and write its pid to the --pid path, the drain-stop
// subcommand kills the recorded pid and removes the record, and invocations
// without --pid (the detach path) just run in the foreground.
const stubProgram = `#!/bin/sh
mode=run
[ "$1" = "celery" ] && [ "$2" = "stop" ] && mode=stop
pidfile=""
prev=""
for a in "$@"; do
	[ "$prev" = "--pid" ] && pidfile="$a"
	prev="$a"
done
if [ "$mode" = "stop" ]; then
	[ -f "$pidfile" ] && kill "$(cat "$pidfile")" 2>/dev/null
	rm -f "$pidfile"
	exit 0
fi
if [ -z "$pidfile" ]; then
	exec sleep 60
fi
sleep 60 &
echo $! > "$pidfile"
`

func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	requireUnix(t)
	home := t.TempDir()
	program := filepath.Join(home, "airflow-stub")
	if err := os.WriteFile(program, []byte(stubProgram), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	cfg, err := config.LoadFrom(home)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Program = program
	cfg.StartWindow = 2 * time.Second
	cfg.StopTimeout = 2 * time.Second
	cfg.DrainTimeout = 2 * time.Second
	cfg.PollInterval = 25 * time.Millisecond
	var buf bytes.Buffer
	sup := New(cfg, logger.NewWriter(&buf, "debug"), nil)
	t.Cleanup(func() { killLeftovers(t, sup) })
	return sup
}

// killLeftovers reaps any stub sleepers still tracked so a failed test does
// not leak processes.
func killLeftovers(t *testing.T, s *Supervisor) {
	t.Helper()
	for _, r := range s.roles {
		pid, _, err := s.store.Read(s.Identity(r))
		if err == nil && pid > 0 {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	}
}

func mustLookup(t *testing.T, s *Supervisor, name string) Role {
	t.Helper()
	r, err := s.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", name, err)
	}
	return r
}

func TestLookupUnknownService(t *testing.T) {
	sup := newTestSupervisor(t)
	if _, err := sup.Lookup("nonsense"); err == nil {
		t.Fatalf("expected error for unknown service")
	}
}

func TestCheckAbsent(t *testing.T) {
	sup := newTestSupervisor(t)
	pid, err := sup.Check(mustLookup(t, sup, "scheduler"))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pid != 0 {
		t.Fatalf("expected down, got pid=%d", pid)
	}
}

func TestCheckHealsStaleRecord(t *testing.T) {
	sup := newTestSupervisor(t)
	role := mustLookup(t, sup, "scheduler")
	id := sup.Identity(role)

	// A reaped child's pid is as dead as a pid gets.
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadPid := cmd.Process.Pid
	_ = cmd.Wait()

	if err := sup.store.Write(id, deadPid); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	pid, err := sup.Check(role)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pid != 0 {
		t.Fatalf("stale record returned pid=%d", pid)
	}
	if sup.store.Exists(id) {
		t.Fatalf("stale record not removed")
	}
	// Healing is idempotent.
	if pid, err := sup.Check(role); err != nil || pid != 0 {
		t.Fatalf("second Check: pid=%d err=%v", pid, err)
	}
}

func TestCheckMalformedRecordIsFatal(t *testing.T) {
	sup := newTestSupervisor(t)
	role := mustLookup(t, sup, "triggerer")
	id := sup.Identity(role)
	if err := os.WriteFile(sup.store.Locate(id), []byte("garbage"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := sup.Check(role); err == nil {
		t.Fatalf("malformed record did not error")
	}
	if !sup.store.Exists(id) {
		t.Fatalf("malformed record was auto-removed")
	}
}

func TestCheckAdoptsScannedProcess(t *testing.T) {
	sup := newTestSupervisor(t)
	role := mustLookup(t, sup, "api-server")
	role.ScanPrefix = "sleep"

	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	pid, err := sup.Check(role)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("scan fallback found nothing")
	}
	// Adopted into the store: the fast path now works without scanning.
	got, ok, err := sup.store.Read(sup.Identity(role))
	if err != nil || !ok || got != pid {
		t.Fatalf("adoption: pid=%d ok=%v err=%v", got, ok, err)
	}
}

func TestStatusesOrderAndLabels(t *testing.T) {
	sup := newTestSupervisor(t)
	sts, err := sup.Statuses()
	if err != nil {
		t.Fatalf("Statuses: %v", err)
	}
	want := []string{
		"api-server", "scheduler", "triggerer", "dag-processor",
		"worker@" + sup.Host(), "worker-gpu@" + sup.Host(),
	}
	if len(sts) != len(want) {
		t.Fatalf("expected %d statuses, got %d", len(want), len(sts))
	}
	for i, w := range want {
		if sts[i].Label != w {
			t.Fatalf("status %d: label %q, want %q", i, sts[i].Label, w)
		}
		if sts[i].Up {
			t.Fatalf("status %d (%s): unexpectedly up", i, w)
		}
		if sts[i].Line() != w+" down" {
			t.Fatalf("status line: %q", sts[i].Line())
		}
	}
}

func TestStatusLineUp(t *testing.T) {
	st := Status{Label: "scheduler", Up: true, PID: 42}
	if st.Line() != "scheduler up (pid=42)" {
		t.Fatalf("line: %q", st.Line())
	}
}
