package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaxTitleLen caps product titles; anything longer is truncated at extraction.
const MaxTitleLen = 250

// ProductRecord represents one observed product listing from a retailer.
// Price is nil when a price could not be confirmed; such records never reach
// consumer-facing output.
type ProductRecord struct {
	Store         string           `json:"store"`
	Title         string           `json:"title"`
	Brand         string           `json:"brand"`
	Price         *decimal.Decimal `json:"price"`
	PriceUnitText string           `json:"priceUnitText"`
	Image         string           `json:"image"`
	URL           string           `json:"url"`
	SKU           string           `json:"sku"`
	Category      string           `json:"category"`
	Region        string           `json:"region"`
	ObservedAt    time.Time        `json:"observedAt"`
}

// HasPrice reports whether the record carries a confirmed price.
func (r *ProductRecord) HasPrice() bool {
	return r.Price != nil
}

// MergeKey is the cross-retailer dedup identity used for live search results.
func (r *ProductRecord) MergeKey() string {
	return r.Store + "|" + strings.ToLower(strings.TrimSpace(r.Title)) + "|" + r.URL
}

// CatalogKey is the dedup identity used when building the canonical catalog:
// SKU when the retailer provides one, URL otherwise.
func (r *ProductRecord) CatalogKey() string {
	id := strings.TrimSpace(r.SKU)
	if id == "" {
		id = r.URL
	}
	return r.Store + "|" + id
}

// Completeness scores how much optional data the record carries. Used to
// decide which of two duplicate observations to keep.
func (r *ProductRecord) Completeness() int {
	score := 0
	if r.Price != nil {
		score += 4
	}
	if r.Image != "" {
		score++
	}
	if r.Brand != "" {
		score++
	}
	if r.PriceUnitText != "" {
		score++
	}
	return score
}
