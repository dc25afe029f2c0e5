package retailer

import (
	"net/url"
	"time"

	"github.com/smartsave/backend/config"
	"github.com/smartsave/backend/internal/domain"
	"github.com/smartsave/backend/internal/infrastructure/extract"
	"github.com/smartsave/backend/internal/infrastructure/fetch"
)

const saveOnFoodsBaseURL = "https://www.saveonfoods.com"

// NewSaveOnFoods builds the Save-On-Foods client. The store id (RSID) goes
// into the URL path; without it the site hides prices entirely.
func NewSaveOnFoods(cfg config.RetailerConfig, browser config.BrowserConfig, cache domain.SourceCache, snapshotDir string) *Client {
	storeID := cfg.StoreID
	if storeID == "" {
		storeID = "1982"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	plan := fetch.RenderPlan{
		WaitSelector: "a[href*='/product/'], a[href*='/products/']",
		TileSelector: "a[href*='/product/'], a[href*='/products/']",
		TileGoal:     40,
	}

	return &Client{
		name:    "Save-On-Foods",
		baseURL: saveOnFoodsBaseURL,
		searchURL: func(query, _ string) string {
			return saveOnFoodsBaseURL + "/sm/pickup/rsid/" + storeID + "/search?q=" + url.QueryEscape(query)
		},
		fetcher:     fetch.NewBrowserFetcher("Save-On-Foods", browser.Headless, browser.NavTimeout, plan),
		extractor:   extract.New(extract.WithMarkers("/product/", "/products/")),
		cache:       cache,
		ttl:         ttl,
		urlMarkers:  []string{"/product/", "/products/"},
		snapshotDir: snapshotDir,
	}
}
