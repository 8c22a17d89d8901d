package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	latestFile = "latest.json"
	lastOKFile = "last_ok.json"
)

// LoadLatest reads the most recent snapshot from dataDir.
func LoadLatest(dataDir string) (Snapshot, error) {
	return loadSnapshot(filepath.Join(dataDir, latestFile))
}

// LoadLastOK reads the last known-good snapshot. A missing file is fine —
// the very first run has no fallback.
func LoadLastOK(dataDir string) Snapshot {
	snap, err := loadSnapshot(filepath.Join(dataDir, lastOKFile))
	if err != nil {
		return Snapshot{}
	}
	return snap
}

// Save writes the merged snapshot as latest.json and refreshes last_ok.json.
// Both writes go through a tmp file + rename so a crash never leaves a
// half-written snapshot behind.
func Save(dataDir string, snap Snapshot) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := writeSnapshot(filepath.Join(dataDir, latestFile), snap); err != nil {
		return err
	}
	return writeSnapshot(filepath.Join(dataDir, lastOKFile), snap)
}

func loadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return snap, nil
}

func writeSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
