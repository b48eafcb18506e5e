// Package poll provides the bounded sleep-poll loop shared by every wait in
// the supervisor: record appearance after a start, process exit after a stop,
// record removal after a worker drain.
package poll

import "time"

// Until calls fn every interval, up to attempts times, and reports whether
// fn ever returned true. It never blocks longer than attempts*interval.
func Until(attempts int, interval time.Duration, fn func() bool) bool {
	for i := 0; i < attempts; i++ {
		if fn() {
			return true
		}
		time.Sleep(interval)
	}
	return false
}

// Attempts splits timeout into the number of interval-sized attempts Until
// needs to cover it, always at least one.
func Attempts(timeout, interval time.Duration) int {
	if interval <= 0 || timeout <= interval {
		return 1
	}
	return int(timeout / interval)
}
