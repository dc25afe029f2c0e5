package domain

// SortMode selects the ordering of merged search results.
type SortMode string

const (
	SortPriceAsc  SortMode = "price-asc"
	SortPriceDesc SortMode = "price-desc"
	SortTitle     SortMode = "title"
	SortBrand     SortMode = "brand"
	SortStore     SortMode = "store"
)

// ParseSortMode maps a query-string value to a sort mode, defaulting to
// cheapest-first for unknown values.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortPriceDesc, SortTitle, SortBrand, SortStore:
		return SortMode(s)
	default:
		return SortPriceAsc
	}
}

// SearchRequest carries one merged-search invocation across all retailers.
type SearchRequest struct {
	Query        string
	Region       string
	ForceRefresh bool
	Sort         SortMode
	Page         int
	PageSize     int
}

// MergedResult is the deduplicated, sorted, paginated cross-retailer result.
type MergedResult struct {
	Items    []ProductRecord `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Query    string          `json:"query"`
	Region   string          `json:"region"`
	Sort     SortMode        `json:"sort"`
}
