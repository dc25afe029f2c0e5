package usecase

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/smartsave/backend/internal/domain"
)

// AggregatorConfig holds presentation tuning for merged search results.
type AggregatorConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	RetailerLimit   int
}

// Aggregator fans a query out to every configured retailer, merges the
// partial results and prepares them for presentation. One retailer failing
// or timing out never affects the others; it just contributes zero records.
type Aggregator struct {
	retailers       []domain.Retailer
	defaultPageSize int
	maxPageSize     int
	retailerLimit   int
}

// NewAggregator creates an aggregator over the given retailers.
func NewAggregator(retailers []domain.Retailer, config AggregatorConfig) *Aggregator {
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 50
	}
	if config.DefaultPageSize <= 0 || config.DefaultPageSize > config.MaxPageSize {
		config.DefaultPageSize = config.MaxPageSize
	}
	if config.RetailerLimit <= 0 {
		config.RetailerLimit = 12
	}
	return &Aggregator{
		retailers:       retailers,
		defaultPageSize: config.DefaultPageSize,
		maxPageSize:     config.MaxPageSize,
		retailerLimit:   config.RetailerLimit,
	}
}

// Search runs the merged cross-retailer search.
func (a *Aggregator) Search(ctx context.Context, request domain.SearchRequest) (*domain.MergedResult, error) {
	if strings.TrimSpace(request.Query) == "" {
		return nil, domain.ErrInvalidRequest
	}

	batches := make([][]domain.ProductRecord, len(a.retailers))
	var wg sync.WaitGroup
	for i, r := range a.retailers {
		wg.Add(1)
		go func(i int, r domain.Retailer) {
			defer wg.Done()
			batches[i] = r.Search(ctx, request.Query, request.Region, request.ForceRefresh, a.retailerLimit)
		}(i, r)
	}
	wg.Wait()

	merged := mergeRecords(batches)
	sortRecords(merged, request.Sort)

	page, size := a.clampPage(request.Page, request.PageSize)
	items := paginate(merged, page, size)

	log.Printf("[AGGREGATE] q=%q merged=%d page=%d size=%d", request.Query, len(merged), page, size)
	return &domain.MergedResult{
		Items:    items,
		Total:    len(merged),
		Page:     page,
		PageSize: size,
		Query:    request.Query,
		Region:   strings.ToUpper(strings.TrimSpace(request.Region)),
		Sort:     request.Sort,
	}, nil
}

// mergeRecords deduplicates by (store, title, url). First seen wins unless a
// later observation is strictly more complete; equal completeness falls to
// the most recent observation. Records without a price never survive, even
// if a retailer client let one through.
func mergeRecords(batches [][]domain.ProductRecord) []domain.ProductRecord {
	var merged []domain.ProductRecord
	index := make(map[string]int)

	for _, batch := range batches {
		for _, rec := range batch {
			if !rec.HasPrice() {
				continue
			}
			key := rec.MergeKey()
			at, exists := index[key]
			if !exists {
				index[key] = len(merged)
				merged = append(merged, rec)
				continue
			}
			current := &merged[at]
			if rec.Completeness() > current.Completeness() ||
				(rec.Completeness() == current.Completeness() && rec.ObservedAt.After(current.ObservedAt)) {
				merged[at] = rec
			}
		}
	}
	return merged
}

// sortRecords re-imposes a deterministic order; extraction order is layout
// dependent and not stable across runs.
func sortRecords(records []domain.ProductRecord, mode domain.SortMode) {
	less := func(i, j int) bool { return priceAscLess(&records[i], &records[j]) }

	switch mode {
	case domain.SortPriceDesc:
		less = func(i, j int) bool {
			a, b := &records[i], &records[j]
			if cmp := comparePrices(a, b); cmp != 0 {
				return cmp > 0
			}
			return titleLess(a, b)
		}
	case domain.SortTitle:
		less = func(i, j int) bool {
			a, b := &records[i], &records[j]
			if titleLess(a, b) {
				return true
			}
			if titleLess(b, a) {
				return false
			}
			return comparePrices(a, b) < 0
		}
	case domain.SortBrand:
		less = func(i, j int) bool {
			a, b := &records[i], &records[j]
			// Unknown brands sort last.
			if (a.Brand == "") != (b.Brand == "") {
				return a.Brand != ""
			}
			ab, bb := strings.ToLower(a.Brand), strings.ToLower(b.Brand)
			if ab != bb {
				return ab < bb
			}
			return titleLess(a, b)
		}
	case domain.SortStore:
		less = func(i, j int) bool {
			a, b := &records[i], &records[j]
			if a.Store != b.Store {
				return a.Store < b.Store
			}
			return priceAscLess(a, b)
		}
	}

	sort.SliceStable(records, less)
}

func priceAscLess(a, b *domain.ProductRecord) bool {
	if cmp := comparePrices(a, b); cmp != 0 {
		return cmp < 0
	}
	return titleLess(a, b)
}

// comparePrices orders confirmed prices ascending with nil last.
func comparePrices(a, b *domain.ProductRecord) int {
	switch {
	case a.Price == nil && b.Price == nil:
		return 0
	case a.Price == nil:
		return 1
	case b.Price == nil:
		return -1
	}
	return a.Price.Cmp(*b.Price)
}

func titleLess(a, b *domain.ProductRecord) bool {
	return strings.ToLower(a.Title) < strings.ToLower(b.Title)
}

func (a *Aggregator) clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = a.defaultPageSize
	}
	if size > a.maxPageSize {
		size = a.maxPageSize
	}
	return page, size
}

// paginate applies 1-based offset/limit windowing.
func paginate(records []domain.ProductRecord, page, size int) []domain.ProductRecord {
	start := (page - 1) * size
	if start >= len(records) {
		return []domain.ProductRecord{}
	}
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
