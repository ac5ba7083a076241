package scanning

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/modgrove/modcore/internal/normalize"
)

// cacheKey identifies a cached FolderSignals result by folder path, mode,
// and a (mtime, entry count) signature. A cache hit requires all three to
// match; any filesystem change invalidates the signature and forces a
// rescan.
type cacheKey struct {
	path          string
	mode          Mode
	newestModTime int64
	entryCount    int
}

// Cache is a thread-safe LRU of FolderSignals keyed by
// (folder_path, mode, signature).
type Cache struct {
	inner *lru.Cache[cacheKey, FolderSignals]
}

// NewCache builds a signal cache holding up to capacity entries.
func NewCache(capacity int) (*Cache, error) {
	inner, err := lru.New[cacheKey, FolderSignals](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// Get returns the cached FolderSignals for path/mode if the signature
// matches, or false on a miss.
func (c *Cache) Get(path string, mode Mode, newestModTime int64, entryCount int) (FolderSignals, bool) {
	return c.inner.Get(cacheKey{path, mode, newestModTime, entryCount})
}

// Put stores FolderSignals for path/mode under the given signature,
// evicting the least-recently-used entry if the cache is full.
func (c *Cache) Put(path string, mode Mode, newestModTime int64, entryCount int, signals FolderSignals) {
	c.inner.Add(cacheKey{path, mode, newestModTime, entryCount}, signals)
}

// CollectCached wraps Collect with signature-based caching: it derives the
// folder's (mtime, entry count) signature from content and only re-runs
// Collect on a cache miss.
func CollectCached(cache *Cache, root, displayName string, content FolderContent, mode Mode, cfg normalize.Config, readFile func(string) ([]byte, error)) FolderSignals {
	newest, count := content.Signature()
	if cache != nil {
		if cached, ok := cache.Get(root, mode, newest, count); ok {
			return cached
		}
	}
	signals := Collect(displayName, content, mode, cfg, readFile)
	if cache != nil {
		cache.Put(root, mode, newest, count, signals)
	}
	return signals
}
