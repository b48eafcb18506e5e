package poll

import (
	"testing"
	"time"
)

func TestUntilImmediate(t *testing.T) {
	calls := 0
	ok := Until(10, time.Hour, func() bool {
		calls++
		return true
	})
	if !ok || calls != 1 {
		t.Fatalf("ok=%v calls=%d", ok, calls)
	}
}

func TestUntilEventually(t *testing.T) {
	calls := 0
	ok := Until(10, time.Millisecond, func() bool {
		calls++
		return calls >= 3
	})
	if !ok || calls != 3 {
		t.Fatalf("ok=%v calls=%d", ok, calls)
	}
}

func TestUntilExhausted(t *testing.T) {
	calls := 0
	start := time.Now()
	ok := Until(5, time.Millisecond, func() bool {
		calls++
		return false
	})
	if ok {
		t.Fatalf("predicate never true but Until reported success")
	}
	if calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("bounded poll ran too long: %v", elapsed)
	}
}

func TestAttempts(t *testing.T) {
	if got := Attempts(time.Second, 100*time.Millisecond); got != 10 {
		t.Fatalf("Attempts(1s, 100ms) = %d", got)
	}
	if got := Attempts(0, 100*time.Millisecond); got != 1 {
		t.Fatalf("Attempts(0, 100ms) = %d", got)
	}
	if got := Attempts(time.Second, 0); got != 1 {
		t.Fatalf("Attempts(1s, 0) = %d", got)
	}
}
