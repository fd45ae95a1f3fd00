package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File stores each key as a JSON file under a root directory, with an
// in-memory cache in front. The files are the source of truth; the cache
// only saves rereads within one process lifetime.
type File struct {
	dir   string
	cache sync.Map
	mu    sync.Mutex // serializes writes to the same key
}

// NewFile creates a file-backed store rooted at dir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) keyPath(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get reads a key, preferring the cache.
func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if cached, ok := f.cache.Load(key); ok {
		return cached.([]byte), true, nil
	}

	data, err := os.ReadFile(f.keyPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}

	f.cache.Store(key, data)
	return data, true, nil
}

// Set writes a key. The temp-file rename keeps a crash mid-write from
// leaving a torn value behind.
func (f *File) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := f.keyPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	f.cache.Store(key, value)
	return nil
}

// Remove deletes a key. A missing key is not an error.
func (f *File) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cache.Delete(key)
	err := os.Remove(f.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}
