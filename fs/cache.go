// Package fs provides a file-based response cache.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/harvest"
)

// Ensure Cache implements harvest.Cache at compile time.
var _ harvest.Cache = (*Cache)(nil)

// Cache stores response bodies as flat files named after the sha256 hash of
// the key. The directory listing is the full cache state.
type Cache struct {
	dir string

	mu       sync.Mutex
	lastFile string
}

// NewCache creates a Cache rooted at dir, creating the directory if needed.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "cache directory required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, harvest.WrapError(harvest.ECACHE, err, "creating cache directory %s", dir)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key returns the file name used for key.
func Key(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Path returns the full path of the file holding key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, Key(key))
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *Cache) Put(_ context.Context, key string, value []byte) error {
	name := Key(key)
	path := filepath.Join(c.dir, name)

	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return harvest.WrapError(harvest.ECACHE, err, "removing stale cache entry")
	}
	if err := os.WriteFile(path, value, 0644); err != nil {
		return harvest.WrapError(harvest.ECACHE, err, "writing cache entry")
	}

	c.mu.Lock()
	c.lastFile = name
	c.mu.Unlock()
	return nil
}

func (c *Cache) Remove(_ context.Context, key string) error {
	return removeFile(filepath.Join(c.dir, Key(key)))
}

// RemoveLast deletes the entry most recently written by Put.
// It is a no-op when nothing has been written.
func (c *Cache) RemoveLast(_ context.Context) error {
	c.mu.Lock()
	name := c.lastFile
	c.lastFile = ""
	c.mu.Unlock()

	if name == "" {
		return nil
	}
	return removeFile(filepath.Join(c.dir, name))
}

// Clear deletes every file in the cache directory. A missing or empty
// directory is not an error.
func (c *Cache) Clear(_ context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := removeFile(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.lastFile = ""
	c.mu.Unlock()
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	return nil
}
