package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// SettingsFile persists the settings document at a fixed path. A sibling
// ".lock" file serializes access between processes (the server and the CLI
// may share one settings file) and writes replace the file atomically.
type SettingsFile struct {
	path string
	lock *flock.Flock
}

// NewSettingsFile creates a settings file handle. Nothing is touched on disk.
func NewSettingsFile(path string) *SettingsFile {
	return &SettingsFile{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the settings file location
func (f *SettingsFile) Path() string {
	return f.path
}

// Load reads the whole document. A missing file returns an error satisfying
// errors.Is(err, fs.ErrNotExist).
func (f *SettingsFile) Load() ([]byte, error) {
	if _, err := os.Stat(f.path); err != nil {
		return nil, err
	}

	if err := f.lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock settings: %w", err)
	}
	defer f.lock.Unlock()

	return os.ReadFile(f.path)
}

// Save writes data to a temporary file and renames it over the settings file
func (f *SettingsFile) Save(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock settings: %w", err)
	}
	defer f.lock.Unlock()

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
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
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}

	return os.Rename(tmpName, f.path)
}
