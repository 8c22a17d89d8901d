package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunLockMutualExclusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	first := NewRunLock(path)
	if err := first.Acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	second := NewRunLock(path)
	if err := second.Acquire(); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("second acquire = %v, want ErrLockHeld", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	// Released lock is immediately available again.
	if err := second.Acquire(); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	second.Release()
}

func TestRunLockMarkerRemovedOnRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	l := NewRunLock(path)
	if err := l.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("marker missing while held: %v", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("marker still present after release")
	}
}

func TestRunLockCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "run.lock")

	l := NewRunLock(path)
	if err := l.Acquire(); err != nil {
		t.Fatalf("acquire with missing parent dirs: %v", err)
	}
	l.Release()
}

func TestRunLockReleaseUnheld(t *testing.T) {
	l := NewRunLock(filepath.Join(t.TempDir(), "run.lock"))
	if err := l.Release(); err != nil {
		t.Fatalf("releasing an unheld lock must be a no-op, got %v", err)
	}
}
