package incremental

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// StateFileName is the snapshot file inside the log folder.
const StateFileName = "inputs.json"

// Store persists snapshots.
type Store interface {
	Load() (*Index, error)
	Save(idx *Index) error
	Exists() bool
	Clear() error
}

// JSONStore keeps the snapshot as a JSON file in a folder it shares with
// the build logs.
type JSONStore struct {
	dir  string
	path string
}

// NewJSONStore creates a store writing inputs.json inside dir.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		dir:  dir,
		path: filepath.Join(dir, StateFileName),
	}
}

// Path returns the snapshot file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file yields an empty index.
func (s *JSONStore) Load() (*Index, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", s.path, err)
	}
	if idx.Version > IndexVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", idx.Version, IndexVersion)
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}
	return &idx, nil
}

// Save writes the snapshot through a temp file and rename.
func (s *JSONStore) Save(idx *Index) error {
	if idx == nil {
		return errors.New("cannot save nil index")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log folder: %w", err)
	}

	idx.UpdatedAt = time.Now()
	idx.Version = IndexVersion

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

// Exists returns true if a snapshot was saved.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the snapshot file. The folder is left in place since the
// build logs live there too.
func (s *JSONStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
