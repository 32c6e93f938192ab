// Package store persists the state shared between toastui and toastuid.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DataDir returns the path to the toastui data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/toastui.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "toastui"), nil
}

// StateFilePath returns the path to the state file.
func StateFilePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "state.json"), nil
}

// Transition records who last paused or resumed the countdowns.
type Transition struct {
	Paused    bool   `json:"paused"`
	Reason    string `json:"reason,omitempty"`
	Source    string `json:"source,omitempty"` // e.g. "cli", "waybar"
	Timestamp int64  `json:"timestamp"`
}

// State is shared between toastui and toastuid through
// ~/.local/share/toastui/state.json.
type State struct {
	// Paused holds every countdown in the daemon until cleared.
	Paused   bool  `json:"paused"`
	PausedAt int64 `json:"paused_at,omitempty"`

	LastTransition *Transition `json:"last_transition,omitempty"`

	SchemaVersion int `json:"schema_version"`
}

// CurrentSchemaVersion is the current version of the state schema.
const CurrentSchemaVersion = 1

// stateFileMutex serialises access from within one process.
var stateFileMutex sync.RWMutex

// DefaultState returns the state used when no file exists.
func DefaultState() *State {
	return &State{SchemaVersion: CurrentSchemaVersion}
}

// LoadState reads the state file at path. A missing or corrupt file yields
// the default state.
func LoadState(path string) (*State, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultState(), nil
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}
	return &state, nil
}

// SaveState writes the state atomically, creating parent directories.
func SaveState(path string, state *State) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := mkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// SetPaused records a pause or resume.
func (s *State) SetPaused(paused bool, reason, source string, now time.Time) {
	s.Paused = paused
	if paused {
		s.PausedAt = now.Unix()
	} else {
		s.PausedAt = 0
	}
	s.LastTransition = &Transition{
		Paused:    paused,
		Reason:    reason,
		Source:    source,
		Timestamp: now.Unix(),
	}
}

// TogglePaused flips the pause and returns the new value.
func (s *State) TogglePaused(reason, source string, now time.Time) bool {
	s.SetPaused(!s.Paused, reason, source, now)
	return s.Paused
}

func mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}
