package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// State is the persisted summary of the most recent run, read by the trigger
// server's status endpoint and its once-per-day guard.
type State struct {
	LastRunID       string `json:"last_run_id,omitempty"`
	LastStartedAt   string `json:"last_started_at,omitempty"`
	LastStartedBy   string `json:"last_started_by,omitempty"`
	LastFinishedAt  string `json:"last_finished_at,omitempty"`
	LastStatus      string `json:"last_status,omitempty"`
	LastErrorStage  string `json:"last_error_stage,omitempty"`
	LastSuccessDate string `json:"last_success_date,omitempty"`
}

// LoadState reads the state file. A missing or corrupt file yields an empty
// state — the run must not depend on its own bookkeeping surviving.
func LoadState(path string) State {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}
	}
	return s
}

// SaveState persists the state atomically (tmp + rename).
func SaveState(path string, s State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}
