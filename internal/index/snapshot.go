package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"datagov-chat/internal/model"
)

// snapshot is the on-disk form of the index. JSON keeps the file portable
// and float32 values round-trip exactly through encoding/json, so a
// save+reload cycle returns identical query results.
type snapshot struct {
	Dimension int                   `json:"dimension"`
	Records   []model.DatasetRecord `json:"records"`
}

func loadSnapshot(path string) ([]model.DatasetRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot failed: %w", err)
	}
	for i := range snap.Records {
		if len(snap.Records[i].Embedding) != snap.Dimension {
			return nil, fmt.Errorf("snapshot record %d has dimension %d, want %d",
				i, len(snap.Records[i].Embedding), snap.Dimension)
		}
	}
	return snap.Records, nil
}

// saveSnapshot writes to a temp file and renames it so a crash mid-write
// never leaves a truncated snapshot behind.
func saveSnapshot(path string, records []model.DatasetRecord) error {
	dim := 0
	if len(records) > 0 {
		dim = len(records[0].Embedding)
	}
	payload, err := json.Marshal(snapshot{Dimension: dim, Records: records})
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir failed: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file failed: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write snapshot failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot failed: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename snapshot failed: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
