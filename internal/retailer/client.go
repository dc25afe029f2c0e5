// Package retailer composes page fetching, tile extraction and the source
// cache into per-retailer search clients. A client never lets a fetch or
// extraction failure escape: problems are logged with the retailer identity
// and reported as zero results for this round, so the aggregator keeps
// working with whatever the other retailers return.
package retailer

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/smartsave/backend/internal/domain"
)

// Client implements domain.Retailer for one retail source.
type Client struct {
	name      string
	baseURL   string
	searchURL func(query, region string) string
	fetcher   domain.PageFetcher
	fallback  domain.PageFetcher
	extractor domain.TileExtractor
	cache     domain.SourceCache
	ttl       time.Duration

	// urlMarkers narrows the generic extractor output to this retailer's
	// known product-URL shape.
	urlMarkers []string
	skuPattern *regexp.Regexp

	// snapshotDir receives raw-content dumps when extraction yields zero
	// records, to diagnose stale heuristics. Empty disables snapshots.
	snapshotDir string
}

func (c *Client) Name() string { return c.name }

// Search runs the cache-check / fetch / extract / filter / cache-write state
// machine for one query.
func (c *Client) Search(ctx context.Context, query, region string, forceRefresh bool, limit int) []domain.ProductRecord {
	region = strings.ToUpper(strings.TrimSpace(region))
	log.Printf("[%s] search q=%q region=%q force=%v", c.name, query, region, forceRefresh)

	if !forceRefresh {
		if cached, err := c.cache.Get(c.name, query, region, c.ttl); err == nil {
			log.Printf("[%s] cache hit rows=%d", c.name, len(cached))
			return clip(cached, limit)
		}
	}

	content, err := c.fetchContent(ctx, query, region)
	if err != nil {
		c.logFetchFailure(err)
		return nil
	}

	records := c.extractor.Extract(content, c.baseURL, limit)
	if len(records) == 0 {
		log.Printf("[%s] extraction yielded zero records", c.name)
		c.snapshot(query, content)
		return nil
	}

	records = c.finalize(records, region)
	if len(records) == 0 {
		return nil
	}

	if err := c.cache.Put(c.name, query, region, records); err != nil {
		log.Printf("[%s] cache write failed: %v", c.name, err)
	}
	log.Printf("[%s] parsed rows=%d", c.name, len(records))
	return records
}

func (c *Client) fetchContent(ctx context.Context, query, region string) (string, error) {
	pageURL := c.searchURL(query, region)
	content, err := c.fetcher.Fetch(ctx, pageURL)
	if err == nil {
		return content, nil
	}
	// A blocked session stays blocked; a second strategy only helps with
	// render/transport failures.
	if c.fallback == nil || errors.Is(err, domain.ErrBlocked) || ctx.Err() != nil {
		return "", err
	}
	log.Printf("[%s] primary fetch failed (%v), trying direct request", c.name, err)
	return c.fallback.Fetch(ctx, pageURL)
}

// finalize applies the retailer post-filter and stamps source identity onto
// each surviving record.
func (c *Client) finalize(records []domain.ProductRecord, region string) []domain.ProductRecord {
	now := time.Now().UTC()
	out := records[:0]
	for _, rec := range records {
		if !rec.HasPrice() || !c.matchesMarkers(rec.URL) {
			continue
		}
		rec.Store = c.name
		rec.Region = region
		rec.ObservedAt = now
		if rec.SKU == "" && c.skuPattern != nil {
			if m := c.skuPattern.FindStringSubmatch(rec.URL); m != nil {
				rec.SKU = m[1]
			}
		}
		out = append(out, rec)
	}
	return out
}

func (c *Client) matchesMarkers(pageURL string) bool {
	if len(c.urlMarkers) == 0 {
		return true
	}
	lower := strings.ToLower(pageURL)
	for _, marker := range c.urlMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func (c *Client) logFetchFailure(err error) {
	var blocked *domain.BlockedError
	if errors.As(err, &blocked) {
		log.Printf("[%s] BLOCKED (retryable=%v): %s", c.name, blocked.Retryable(), blocked.Advice)
		return
	}
	log.Printf("[%s] fetch failed: %v", c.name, err)
}

// snapshot persists the raw content that produced zero records. Best effort;
// a failed write only logs.
func (c *Client) snapshot(query, content string) {
	if c.snapshotDir == "" || content == "" {
		return
	}
	name := "debug_" + sanitize(c.name) + "_" + sanitize(query) + ".html"
	path := filepath.Join(c.snapshotDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Printf("[%s] snapshot write failed: %v", c.name, err)
		return
	}
	log.Printf("[%s] saved %s for inspection", c.name, path)
}

var sanitizeRegex = regexp.MustCompile(`[^a-z0-9]+`)

func sanitize(s string) string {
	return strings.Trim(sanitizeRegex.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func clip(records []domain.ProductRecord, limit int) []domain.ProductRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
