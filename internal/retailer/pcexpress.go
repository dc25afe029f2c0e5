package retailer

import (
	"net/url"
	"time"

	"github.com/smartsave/backend/config"
	"github.com/smartsave/backend/internal/domain"
	"github.com/smartsave/backend/internal/infrastructure/extract"
	"github.com/smartsave/backend/internal/infrastructure/fetch"
)

// PC Express banners share one storefront platform: prices only appear after
// a store has been chosen via the postal-code picker.
var pcExpressBanners = []struct {
	name    string
	baseURL string
}{
	{"No Frills", "https://www.nofrills.ca"},
	{"Real Canadian Superstore", "https://www.realcanadiansuperstore.ca"},
}

// NewPCExpress builds one client per configured banner.
func NewPCExpress(cfg config.RetailerConfig, browser config.BrowserConfig, cache domain.SourceCache, snapshotDir string) []*Client {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	clients := make([]*Client, 0, len(pcExpressBanners))
	for _, banner := range pcExpressBanners {
		base := banner.baseURL
		plan := fetch.RenderPlan{
			PreNavigateURL: base,
			Store: &fetch.StoreSelection{
				OpenCandidates: []fetch.Candidate{
					{Text: "choose your store"},
					{Text: "pick up"},
					{Text: "delivery"},
				},
				InputSelectors: []string{
					"input[name='postalCode']",
					"input[placeholder*='postal']",
					"input[type='text']",
				},
				PostalCode: cfg.PostalCode,
				ConfirmCandidates: []fetch.Candidate{
					{Text: "choose store"},
					{Text: "select"},
				},
			},
			WaitSelector: "a[href*='/product/'], a[href*='/products/']",
			TileSelector: "a[href*='/product/'], a[href*='/products/']",
			TileGoal:     40,
		}

		clients = append(clients, &Client{
			name:    banner.name,
			baseURL: base,
			searchURL: func(query, _ string) string {
				return base + "/search?search=" + url.QueryEscape(query)
			},
			fetcher:     fetch.NewBrowserFetcher(banner.name, browser.Headless, browser.NavTimeout, plan),
			extractor:   extract.New(extract.WithMarkers("/product/", "/products/")),
			cache:       cache,
			ttl:         ttl,
			urlMarkers:  []string{"/product/", "/products/"},
			snapshotDir: snapshotDir,
		})
	}
	return clients
}
