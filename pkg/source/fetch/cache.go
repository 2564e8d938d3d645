package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"
)

// Cache stores downloaded input files on disk, keyed by URL. The file
// name is the SHA-256 of the URL, so arbitrary URLs map to safe names.
// Entries expire by file modification time; a TTL of 0 never expires.
//
// Multiple processes can share a directory: writes go through a temp
// file and rename, so readers never observe a partial download.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates a download cache rooted at dir, creating it if
// needed.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Get returns the cached body for url. The second result is false on a
// miss or when the entry has expired.
func (c *Cache) Get(url string) ([]byte, bool, error) {
	path := c.keyPath(url)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the body for url, refreshing its TTL.
func (c *Cache) Set(url string, data []byte) error {
	path := c.keyPath(url)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (c *Cache) keyPath(url string) string {
	h := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(h[:]))
}
