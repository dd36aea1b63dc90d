package prefs

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Storage persists preference values as strings.
type Storage interface {
	// Get returns the value stored under key. A missing key reports false
	// with a nil error.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Notifier is implemented by storages that can report changes made by
// other writers. fn receives the key and its new value; an empty value
// means the key was removed. stop may be called from within fn.
type Notifier interface {
	Watch(fn func(key, value string)) (stop func(), err error)
}

// OpenStorage opens a persistent storage at path: SQLite for .db and
// .sqlite files, YAML otherwise.
func OpenStorage(path string) (Storage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return NewFileStorage(path)
	}
}

// MemoryStorage is an in-process Storage. Every Set is reported to all
// watchers, which lets several Stores sharing one MemoryStorage behave
// like browser tabs sharing local storage.
type MemoryStorage struct {
	mu       sync.Mutex
	values   map[string]string
	nextID   int
	watchers map[int]func(key, value string)
}

// NewMemoryStorage returns an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values:   make(map[string]string),
		watchers: make(map[int]func(key, value string)),
	}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	if old, ok := m.values[key]; ok && old == value {
		m.mu.Unlock()
		return nil
	}
	m.values[key] = value
	fns := m.snapshotWatchers()
	m.mu.Unlock()
	for _, fn := range fns {
		fn(key, value)
	}
	return nil
}

// Delete removes key and reports it to watchers as an empty value.
func (m *MemoryStorage) Delete(key string) {
	m.mu.Lock()
	if _, ok := m.values[key]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.values, key)
	fns := m.snapshotWatchers()
	m.mu.Unlock()
	for _, fn := range fns {
		fn(key, "")
	}
}

func (m *MemoryStorage) Watch(fn func(key, value string)) (func(), error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = fn
	m.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}, nil
}

func (m *MemoryStorage) snapshotWatchers() []func(key, value string) {
	ids := make([]int, 0, len(m.watchers))
	for id := range m.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(key, value string), len(ids))
	for i, id := range ids {
		fns[i] = m.watchers[id]
	}
	return fns
}
