package domain

import (
	"context"
	"time"
)

// PageFetcher retrieves raw page content for one search URL. Implementations
// choose the strategy (direct request vs. rendered browser session) and
// classify failures as ErrNetwork, ErrFetchTimeout or *BlockedError.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// TileExtractor turns raw page content into candidate product records using
// structural and textual heuristics. It never fails: garbled or empty content
// yields an empty slice. Candidates missing a confirmed price or a real
// product URL are never emitted.
type TileExtractor interface {
	Extract(content, baseURL string, limit int) []ProductRecord
}

// SourceCache is the per-(retailer, query, region) TTL cache of extracted
// records. Get returns ErrCacheMiss when no entry exists or the entry is
// older than the retailer's TTL; Put fully replaces the prior entry.
type SourceCache interface {
	Get(retailer, query, region string, ttl time.Duration) ([]ProductRecord, error)
	Put(retailer, query, region string, records []ProductRecord) error
}

// Retailer is the capability a single retail source exposes to the
// aggregator. Search never propagates fetch or extraction failures: they are
// logged and reported as zero results for this round.
type Retailer interface {
	Name() string
	Search(ctx context.Context, query, region string, forceRefresh bool, limit int) []ProductRecord
}
