package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorHandlerAddsLevelPrefix(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(h)
	log.Warn("stale record removed", "service", "scheduler")
	out := buf.String()
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "stale record removed") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "service=scheduler") {
		t.Fatalf("attr missing: %q", out)
	}
}

func TestColorHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info enabled at warn level")
	}
}

func TestFileLoggerWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowctl.log")
	log := Config{File: path, Level: "info"}.New()
	log.Info("start", "service", "triggerer", "pid", 123)
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(b), "service=triggerer") {
		t.Fatalf("unexpected log content: %q", string(b))
	}
}
