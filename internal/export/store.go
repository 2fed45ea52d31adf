package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DocumentName is the file name stroke number index is saved under.
func DocumentName(index uint64) string {
	return fmt.Sprintf("drawing%d.svg", index)
}

// DirStore saves documents into a single directory, created on first use.
type DirStore struct {
	Dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Path is where a document called name is stored.
func (s *DirStore) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Save writes doc under name and returns its path. The document is written
// to a temporary file in the same directory and renamed into place, so a
// failed save never leaves a partial document behind.
func (s *DirStore) Save(name string, doc io.WriterTo) (path string, err error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create document directory %s: %w", s.Dir, err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp document: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = doc.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write document %s: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("sync document %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("close document %s: %w", name, err)
	}

	path = s.Path(name)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename document into %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes a saved document. Removing a missing document is not an
// error.
func (s *DirStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove document %s: %w", path, err)
	}
	return nil
}
