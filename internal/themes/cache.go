package themes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	// CacheVersion tags the on-disk format.
	CacheVersion = "1.0.0-mvp"
	// CacheTTL is how long a saved result stays valid.
	CacheTTL = 7 * 24 * time.Hour

	cacheFileName = "discovered_themes.json"
)

// CacheEntry is the on-disk form of a saved result.
type CacheEntry struct {
	Themes    []Theme `json:"themes"`
	CreatedAt int64   `json:"created_at"` // unix seconds
	Version   string  `json:"version"`
}

// Cache stores the latest discovered themes in a JSON file.
type Cache struct {
	path string
	now  func() time.Time
	log  *zap.Logger
}

// NewCache returns a Cache keeping its file in dir.
func NewCache(dir string, log *zap.Logger) *Cache {
	return &Cache{
		path: filepath.Join(dir, cacheFileName),
		now:  time.Now,
		log:  log.Named("cache"),
	}
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Save replaces the cache with themes, creating the directory if needed.
func (c *Cache) Save(themes []Theme) error {
	if themes == nil {
		themes = []Theme{}
	}
	entry := CacheEntry{
		Themes:    themes,
		CreatedAt: c.now().Unix(),
		Version:   CacheVersion,
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding themes: %w", err)
	}

	// Write then rename so readers never see a partial file.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// Load returns the cached entry. Returns (nil, nil) if there is no entry or
// it is corrupt, from another version, or older than CacheTTL.
func (c *Cache) Load() (*CacheEntry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn("ignoring corrupt theme cache", zap.String("path", c.path), zap.Error(err))
		return nil, nil
	}
	if entry.Version != CacheVersion {
		c.log.Info("ignoring theme cache from another version", zap.String("version", entry.Version))
		return nil, nil
	}

	age := c.now().Sub(time.Unix(entry.CreatedAt, 0))
	if age > CacheTTL {
		c.log.Debug("theme cache expired", zap.Duration("age", age))
		return nil, nil
	}
	if entry.Themes == nil {
		entry.Themes = []Theme{}
	}
	return &entry, nil
}

// Clear removes the cache file. Returns nil if the file does not exist.
func (c *Cache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}
