package factory

import (
	"context"
	"testing"
	"time"

	"github.com/loykin/flowctl/internal/history"
)

func TestSQLiteMemoryDSN(t *testing.T) {
	sink, err := NewSinkFromDSN("sqlite://:memory:", "")
	if err != nil {
		t.Fatalf("NewSinkFromDSN: %v", err)
	}
	defer func() { _ = sink.Close() }()
	e := history.Event{Type: history.EventStart, OccurredAt: time.Now(), Service: "scheduler", PID: 1}
	if err := sink.Send(context.Background(), e); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestBarePathDefaultsToSQLite(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSinkFromDSN("history.db", dir)
	if err != nil {
		t.Fatalf("NewSinkFromDSN: %v", err)
	}
	defer func() { _ = sink.Close() }()
	if err := sink.Send(context.Background(), history.Event{Type: history.EventStop, OccurredAt: time.Now()}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestEmptyDSN(t *testing.T) {
	if _, err := NewSinkFromDSN("   ", ""); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestUnsupportedDSN(t *testing.T) {
	if _, err := NewSinkFromDSN("redis://localhost:6379", ""); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
