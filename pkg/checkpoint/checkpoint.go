package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"sleepfetch/pkg/logger"
)

// ProgressState is the durable record of fetch progress. CurrentTimestamp is
// the cursor at the last successful chunk flush, TotalRecords the running
// count of persisted records. LastSaveTime is recorded for diagnostics only
// and never read back for any decision.
type ProgressState struct {
	CurrentTimestamp int64   `json:"current_timestamp"`
	TotalRecords     int     `json:"total_records"`
	LastSaveTime     float64 `json:"last_save_time"`
}

// Manager handles checkpoint operations
type Manager struct {
	path string
	log  logger.Logger
}

// NewManager creates a checkpoint manager for the given progress file path
func NewManager(path string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{path: path, log: log}
}

// Load loads an existing checkpoint. A missing or unparseable file is
// indistinguishable from "no prior run" and returns (nil, nil): corrupt
// checkpoints cause a fresh start, never an error.
func (m *Manager) Load() (*ProgressState, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		m.log.WithError(err).Warn("Checkpoint unreadable, starting fresh")
		return nil, nil
	}

	var state ProgressState
	if err := json.Unmarshal(data, &state); err != nil {
		m.log.WithError(err).Warn("Checkpoint corrupt, starting fresh")
		return nil, nil
	}

	m.log.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"current_timestamp": state.CurrentTimestamp,
		"total_records":     state.TotalRecords,
	})

	return &state, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(state *ProgressState) error {
	state.LastSaveTime = float64(time.Now().UnixNano()) / float64(time.Second)

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if err := json.NewEncoder(file).Encode(state); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	// Atomically replace the old checkpoint file
	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.log.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"current_timestamp": state.CurrentTimestamp,
		"total_records":     state.TotalRecords,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.log.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
