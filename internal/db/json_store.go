package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gatehouse/internal/constants"
)

// JSONFileStore keeps each collection in <dir>/<name>.json.
type JSONFileStore struct {
	dir string
}

var _ DocumentStore = (*JSONFileStore)(nil)

func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &JSONFileStore{dir: dir}, nil
}

func (s *JSONFileStore) path(name constants.CollectionName) string {
	return filepath.Join(s.dir, string(name)+".json")
}

func (s *JSONFileStore) Load(_ context.Context, name constants.CollectionName) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, constants.ErrCollectionMissing)
	}
	return data, err
}

// Save writes to a temp file in the same directory and renames it over the
// old document, so readers never observe a half-written file.
func (s *JSONFileStore) Save(_ context.Context, name constants.CollectionName, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+string(name)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path(name))
}

func (s *JSONFileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *JSONFileStore) Backend() string { return "json" }
