package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStorage keeps preferences in a YAML map file. Writes replace the
// file atomically so concurrent readers never see a partial document.
type FileStorage struct {
	path string
	mu   sync.Mutex

	// OnWatchError receives errors from Watch's background goroutine.
	OnWatchError func(error)
}

// NewFileStorage returns a storage backed by path, creating its parent
// directory. The file itself is created on the first Set.
func NewFileStorage(path string) (*FileStorage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("prefs: create storage dir: %w", err)
	}
	return &FileStorage{path: abs}, nil
}

// Path returns the absolute file path.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Get(key string) (string, bool, error) {
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if old, ok := values[key]; ok && old == value {
		return nil
	}
	values[key] = value
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("prefs: encode %s: %w", f.path, err)
	}
	return writeFileAtomic(f.path, data)
}

func (f *FileStorage) Watch(fn func(key, value string)) (func(), error) {
	return watchFiles(filepath.Dir(f.path), []string{filepath.Base(f.path)}, f.load, fn, f.OnWatchError)
}

func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: read %s: %w", f.path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("prefs: parse %s: %w", f.path, err)
	}
	return values, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("prefs: write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("prefs: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("prefs: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("prefs: write %s: %w", path, err)
	}
	return nil
}
