package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartsave/backend/internal/domain"
)

func testRecords(store string) []domain.ProductRecord {
	price := decimal.RequireFromString("4.99")
	return []domain.ProductRecord{{
		Store:      store,
		Title:      "Whole Milk 2L",
		Price:      &price,
		URL:        "https://example.com/product/milk-2l",
		Region:     "AB",
		ObservedAt: time.Now().UTC().Truncate(time.Second),
	}}
}

func TestFileCache_PutAndGet(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if err := c.Put("Walmart", "milk", "AB", testRecords("Walmart")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := c.Get("Walmart", "milk", "AB", time.Hour)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Whole Milk 2L" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestFileCache_Get_Miss(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get("Walmart", "milk", "AB", time.Hour); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestFileCache_Get_ExpiredEntryIsMiss(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Put("Walmart", "milk", "AB", testRecords("Walmart")); err != nil {
		t.Fatal(err)
	}

	// Entry written 61 minutes ago against a 1 hour TTL
	old := time.Now().Add(-61 * time.Minute)
	if err := os.Chtimes(c.Path("Walmart", "milk", "AB"), old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get("Walmart", "milk", "AB", time.Hour); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after TTL expiry error = %v, want ErrCacheMiss", err)
	}
}

func TestFileCache_RetailerNamespacesAreIndependent(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Put("Walmart", "milk", "AB", testRecords("Walmart")); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get("Save-On-Foods", "milk", "AB", time.Hour); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("other retailer's Get() error = %v, want ErrCacheMiss", err)
	}

	if c.Path("Walmart", "milk", "AB") == c.Path("Save-On-Foods", "milk", "AB") {
		t.Error("cache paths for different retailers must differ")
	}
}

func TestFileCache_KeySlugging(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Queries that differ only in casing/punctuation share an entry;
	// missing region falls back to the NA namespace.
	if err := c.Put("Walmart", "Whole Milk!", "", testRecords("Walmart")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("Walmart", "whole milk", "", time.Hour); err != nil {
		t.Errorf("Get() with normalized-equal query error = %v", err)
	}

	path := c.Path("Walmart", "Whole Milk!", "")
	if want := "whole-milk_NA_walmart.csv"; !pathEndsWith(path, want) {
		t.Errorf("Path() = %s, want suffix %s", path, want)
	}

	if err := c.Put("Walmart", "milk", "ab", testRecords("Walmart")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("Walmart", "milk", "AB", time.Hour); err != nil {
		t.Errorf("region casing should not split the namespace: %v", err)
	}
}

func TestFileCache_RegionIsSlugged(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Region comes straight from the request; separators and dots must
	// never steer the entry outside the cache directory.
	tests := []struct {
		region string
		want   string
	}{
		{"ab", "milk_AB_walmart.csv"},
		{"B.C.", "milk_B-C_walmart.csv"},
		{"../../../evil", "milk_EVIL_walmart.csv"},
		{"..", "milk_NA_walmart.csv"},
	}

	for _, tt := range tests {
		path := c.Path("Walmart", "milk", tt.region)
		if filepath.Dir(path) != dir {
			t.Errorf("Path(region=%q) = %s, escapes the cache directory", tt.region, path)
		}
		if got := filepath.Base(path); got != tt.want {
			t.Errorf("Path(region=%q) base = %s, want %s", tt.region, got, tt.want)
		}
	}

	if err := c.Put("Walmart", "milk", "../../../evil", testRecords("Walmart")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "milk_EVIL_walmart.csv" {
		t.Errorf("cache dir entries = %v, want only the slugged file", entries)
	}
}

func pathEndsWith(path, suffix string) bool {
	return len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix
}
