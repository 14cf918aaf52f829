package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/models"
)

// Manager persists record batches to the output store. It is the sole writer
// of the store file for the duration of a run; no locking is needed beyond
// the atomic rename used by snapshot writes.
type Manager struct {
	path string
	log  logger.Logger
}

// NewManager creates a storage manager for the given output store path
func NewManager(path string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{path: path, log: log}
}

// Path returns the output store path
func (m *Manager) Path() string {
	return m.path
}

// WriteSnapshot serializes the full record list as {"sleeps": [...]} to a
// temporary file in the same directory and atomically renames it over the
// target. A concurrent reader sees either the fully-old or fully-new
// content, never a partial file.
func (m *Manager) WriteSnapshot(records []models.SleepRecord) error {
	if records == nil {
		records = []models.SleepRecord{}
	}

	dir := filepath.Dir(m.path)
	tempPath := filepath.Join(dir, filepath.Base(m.path)+".tmp")

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(models.RecordSet{Sleeps: records}); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync store file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close store file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}

	m.log.DebugWithFields("Snapshot written", map[string]interface{}{
		"path":    m.path,
		"records": len(records),
	})

	return nil
}

// AppendChunk writes each record as a JSON object, joined by commas, appended
// to the store's existing bytes. This keeps per-chunk cost low but does NOT
// leave the file valid as a single JSON document; Consolidate restores a
// well-formed snapshot once fetching is finished.
func (m *Manager) AppendChunk(records []models.SleepRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.Write(data)
	}

	file, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open store file for append: %w", err)
	}

	if _, err := file.Write(buf.Bytes()); err != nil {
		file.Close()
		return fmt.Errorf("failed to append chunk: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}

	m.log.DebugWithFields("Chunk appended", map[string]interface{}{
		"path":    m.path,
		"records": len(records),
	})

	return nil
}

// Backup creates a byte-for-byte copy of the store at <path>.backup, taken
// once per run before any mutation. A missing store is not an error.
func (m *Manager) Backup() error {
	src, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Nothing to back up
		}
		return fmt.Errorf("failed to open store for backup: %w", err)
	}
	defer src.Close()

	backupPath := m.path + ".backup"
	dst, err := os.Create(backupPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy store to backup: %w", err)
	}

	m.log.InfoWithFields("Backup created", map[string]interface{}{
		"path": backupPath,
	})

	return nil
}

// Consolidate rewrites the store as a valid {"sleeps": [...]} snapshot.
// After a fetch run the file consists of the initial snapshot followed by
// comma-joined appended records; Consolidate decodes that mixed shape and
// performs an atomic full rewrite of the combined record set.
func (m *Manager) Consolidate() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	records, err := decodeMixed(data)
	if err != nil {
		return fmt.Errorf("failed to decode store file: %w", err)
	}

	if err := m.WriteSnapshot(records); err != nil {
		return err
	}

	m.log.InfoWithFields("Store consolidated", map[string]interface{}{
		"path":    m.path,
		"records": len(records),
	})

	return nil
}

// Exists reports whether the store file is present
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Load reads the store as a well-formed snapshot. Stores still carrying
// appended chunks must be consolidated first.
func (m *Manager) Load() (*models.RecordSet, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var set models.RecordSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("store is not a valid snapshot (run consolidation first): %w", err)
	}

	return &set, nil
}

// decodeMixed decodes a store file that starts with a {"sleeps": [...]}
// snapshot and may be followed by appended records joined by commas, with no
// separator at chunk boundaries. A file whose first object carries no
// "sleeps" key is treated as starting with a bare appended record, so no
// record is lost when the leading snapshot is absent.
func decodeMixed(data []byte) ([]models.SleepRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var head json.RawMessage
	if err := dec.Decode(&head); err != nil {
		return nil, fmt.Errorf("invalid leading snapshot: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(head, &fields); err != nil {
		return nil, fmt.Errorf("invalid leading snapshot: %w", err)
	}

	records := []models.SleepRecord{}
	if raw, ok := fields["sleeps"]; ok {
		var sleeps []models.SleepRecord
		if err := json.Unmarshal(raw, &sleeps); err != nil {
			return nil, fmt.Errorf("invalid leading snapshot: %w", err)
		}
		records = append(records, sleeps...)
	} else {
		var record models.SleepRecord
		if err := json.Unmarshal(head, &record); err != nil {
			return nil, fmt.Errorf("invalid leading record: %w", err)
		}
		records = append(records, record)
	}

	rest := data[dec.InputOffset():]
	for {
		rest = bytes.TrimLeft(rest, ",\r\n\t ")
		if len(rest) == 0 {
			break
		}

		dec = json.NewDecoder(bytes.NewReader(rest))
		var record models.SleepRecord
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("invalid appended record: %w", err)
		}
		records = append(records, record)
		rest = rest[dec.InputOffset():]
	}

	return records, nil
}
