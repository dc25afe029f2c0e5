package cache

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/smartsave/backend/internal/domain"
	"github.com/smartsave/backend/internal/infrastructure/store"
)

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// slug normalizes a cache key component into a filesystem-safe token.
func slug(s string) string {
	return strings.Trim(slugRegex.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// FileCache persists one CSV record batch per (retailer, query, region) key.
// The file modification time is the entry's write time; staleness is judged
// against the retailer's TTL on every read. Writes replace the whole entry
// atomically, so concurrent refreshes of one key are last-writer-wins.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Path returns the entry file for a key. Retailers get independent
// namespaces via the retailer slug suffix. Every component is slugged:
// region arrives straight from the request, so it must not be able to carry
// path separators into the filename.
func (c *FileCache) Path(retailer, query, region string) string {
	regionSlug := slug(region)
	if regionSlug == "" {
		regionSlug = "na"
	}
	name := slug(query) + "_" + strings.ToUpper(regionSlug) + "_" + slug(retailer) + ".csv"
	return filepath.Join(c.dir, name)
}

// Get returns the cached records for a key, or domain.ErrCacheMiss when the
// entry is absent or older than ttl. A miss is a signal, never a failure.
func (c *FileCache) Get(retailer, query, region string, ttl time.Duration) ([]domain.ProductRecord, error) {
	path := c.Path(retailer, query, region)

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}
	if time.Since(info.ModTime()) > ttl {
		return nil, domain.ErrCacheMiss
	}

	records, err := store.ReadRecords(path)
	if err != nil || len(records) == 0 {
		return nil, domain.ErrCacheMiss
	}
	return records, nil
}

// Put fully replaces the entry for a key.
func (c *FileCache) Put(retailer, query, region string, records []domain.ProductRecord) error {
	return store.WriteRecords(c.Path(retailer, query, region), records)
}
