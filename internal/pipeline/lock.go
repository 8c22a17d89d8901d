package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLockHeld means another batch run is active. This is a voluntary skip,
// not a failure — callers exit 0 on it.
var ErrLockHeld = errors.New("another run is already active")

// RunLock is the mutual-exclusion marker for batch runs. It is an advisory
// flock on a well-known file: death of the holding process releases it, so a
// crashed run never wedges the next day's schedule.
type RunLock struct {
	path string
	fl   *flock.Flock
}

func NewRunLock(path string) *RunLock {
	return &RunLock{path: path, fl: flock.New(path)}
}

// Acquire takes the lock without blocking. ErrLockHeld when another run
// holds it.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create runtime dir: %w", err)
	}

	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release removes the lock marker and drops the flock. Removal happens
// first, while the flock is still held, so the marker never exists in an
// unlocked state. Safe to call on an unheld lock; errors are returned for
// logging but there is nothing more a caller can do with them.
func (l *RunLock) Release() error {
	if l.fl.Locked() {
		_ = os.Remove(l.path)
	}
	return l.fl.Unlock()
}

// Path returns the lock file location, for status reporting.
func (l *RunLock) Path() string { return l.path }
