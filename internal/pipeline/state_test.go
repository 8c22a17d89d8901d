package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	in := State{
		LastRunID:       "abc12345",
		LastStartedAt:   "2026-03-14T08:00:00Z",
		LastStartedBy:   "schedule",
		LastFinishedAt:  "2026-03-14T08:04:12Z",
		LastStatus:      "success",
		LastSuccessDate: "2026-03-14",
	}
	if err := SaveState(path, in); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	out := LoadState(path)
	if out != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}

	// No leftover temp file from the atomic write.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind")
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	s := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	if s != (State{}) {
		t.Errorf("missing file should yield empty state, got %+v", s)
	}
}

func TestLoadStateCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := LoadState(path)
	if s != (State{}) {
		t.Errorf("corrupt file should yield empty state, got %+v", s)
	}
}

func TestSaveStateCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime", "state.json")
	if err := SaveState(path, State{LastStatus: "success"}); err != nil {
		t.Fatalf("SaveState with missing parent dir: %v", err)
	}
	if got := LoadState(path); got.LastStatus != "success" {
		t.Errorf("LastStatus = %q", got.LastStatus)
	}
}
