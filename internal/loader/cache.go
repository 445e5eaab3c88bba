package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/JonMunkholm/cable-exports/internal/logging"
)

// DefaultCacheSize is the number of workbook generations kept in memory.
const DefaultCacheSize = 4

// LoadFunc loads a workbook. Load is the production implementation.
type LoadFunc func(ctx context.Context, path string, layout Layout, opts Options) (*Dataset, error)

// cacheKey identifies one version of one workbook. A re-saved file has a
// new modification time and therefore a new key.
type cacheKey struct {
	path    string
	modTime time.Time
	size    int64
}

// CacheStats reports cache activity since creation or the last Invalidate.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Cache memoises workbook loads keyed by file identity (path, mtime, size).
// Entries are only dropped by Invalidate or by LRU eviction.
type Cache struct {
	layout Layout
	opts   Options
	load   LoadFunc

	mu      sync.Mutex // serialises loads so one miss reads the file once
	entries *lru.Cache[cacheKey, *Dataset]
	hits    int64
	misses  int64
}

// NewCache creates a cache that loads with layout and opts.
// size <= 0 uses DefaultCacheSize.
func NewCache(size int, layout Layout, opts Options) (*Cache, error) {
	return newCache(size, layout, opts, Load)
}

func newCache(size int, layout Layout, opts Options, load LoadFunc) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[cacheKey, *Dataset](size)
	if err != nil {
		return nil, fmt.Errorf("create load cache: %w", err)
	}
	return &Cache{
		layout:  layout,
		opts:    opts,
		load:    load,
		entries: entries,
	}, nil
}

// Get returns the dataset for the current version of the workbook at path,
// reading it only when that version has not been loaded yet.
func (c *Cache) Get(ctx context.Context, path string) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	key := cacheKey{path: abs, modTime: info.ModTime(), size: info.Size()}

	c.mu.Lock()
	defer c.mu.Unlock()

	logger := logging.FromContext(ctx)
	if ds, ok := c.entries.Get(key); ok {
		c.hits++
		logger.Debug("load cache hit", "source", abs, "dataset_id", ds.ID)
		return ds, nil
	}

	c.misses++
	logger.Debug("load cache miss", "source", abs, "mod_time", key.modTime)

	ds, err := c.load(ctx, abs, c.layout, c.opts)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, ds)
	return ds, nil
}

// Invalidate drops every cached dataset. The next Get re-reads the workbook.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	c.hits = 0
	c.misses = 0
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: c.entries.Len()}
}
