package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned when a pid record exists but its content
// cannot be parsed. Corrupt records are never auto-healed; an operator has
// to look at the file.
var ErrMalformedRecord = errors.New("malformed pid record")

// Identity keys one manageable service instance: a service name plus an
// optional host qualifier for services that run one instance per host.
type Identity struct {
	Name string
	Host string // empty for host-singleton services
}

// Label renders the identity for status output, e.g. "scheduler" or
// "worker-gpu@node3".
func (id Identity) Label() string {
	if id.Host == "" {
		return id.Name
	}
	return id.Name + "@" + id.Host
}

func (id Identity) stem() string {
	if id.Host == "" {
		return id.Name
	}
	return id.Name + "-" + id.Host
}

// Store owns the on-disk pid records for all service identities.
// No other component touches the record files directly.
type Store struct {
	Dir string
}

// Locate returns the record path for id. Pure function of the inputs, no I/O.
func (s Store) Locate(id Identity) string {
	return filepath.Join(s.Dir, id.stem()+".pid")
}

// Read returns the recorded pid for id. The second result is false when no
// record exists. A record that exists but does not parse as a pid is an
// error wrapping ErrMalformedRecord.
func (s Store) Read(id Identity) (int, bool, error) {
	path := s.Locate(id)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	first, _, _ := strings.Cut(string(b), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("%w: %s", ErrMalformedRecord, path)
	}
	return pid, true, nil
}

// Write records pid for id, replacing any previous record atomically.
func (s Store) Write(id Identity, pid int) error {
	path := s.Locate(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), id.stem()+".pid.*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(strconv.Itoa(pid)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Remove deletes the record for id. Removing an absent record is a no-op.
func (s Store) Remove(id Identity) error {
	err := os.Remove(s.Locate(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether a record file is present for id.
func (s Store) Exists(id Identity) bool {
	_, err := os.Stat(s.Locate(id))
	return err == nil
}
