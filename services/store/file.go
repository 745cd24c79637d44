package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores records as a JSON array in a single file
type FileBackend struct {
	path string
}

// NewFileBackend creates a file backend at path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the file. A missing file is an empty store. Entries may be
// record objects or bare listing id strings.
func (f *FileBackend) Load() ([]SeenRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	records := make([]SeenRecord, 0, len(raw))
	for i, entry := range raw {
		entry = bytes.TrimSpace(entry)
		if len(entry) > 0 && entry[0] == '"' {
			var id string
			if err := json.Unmarshal(entry, &id); err != nil {
				return nil, fmt.Errorf("decode %s entry %d: %w", f.path, i, err)
			}
			records = append(records, SeenRecord{ListingID: id})
			continue
		}

		var r SeenRecord
		if err := json.Unmarshal(entry, &r); err != nil {
			return nil, fmt.Errorf("decode %s entry %d: %w", f.path, i, err)
		}
		records = append(records, r)
	}

	return records, nil
}

// Save writes the records to a temp file in the same directory and renames it
// over the target.
func (f *FileBackend) Save(records []SeenRecord) error {
	if records == nil {
		records = []SeenRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seen records: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
