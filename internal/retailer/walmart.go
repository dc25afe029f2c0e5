package retailer

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/smartsave/backend/config"
	"github.com/smartsave/backend/internal/domain"
	"github.com/smartsave/backend/internal/infrastructure/extract"
	"github.com/smartsave/backend/internal/infrastructure/fetch"
)

const walmartBaseURL = "https://www.walmart.ca"

var walmartSKURegex = regexp.MustCompile(`/ip/([^/?#]+)`)

// NewWalmart builds the Walmart client. Search pages are script-rendered and
// lazy-loaded, so the primary strategy is a browser session; a direct request
// is kept as fallback for when rendering itself fails.
func NewWalmart(cfg config.RetailerConfig, browser config.BrowserConfig, cache domain.SourceCache, snapshotDir string) *Client {
	plan := fetch.RenderPlan{
		WaitSelector: "a[href*='/ip/']",
		TileSelector: "a[href*='/ip/']",
		TileGoal:     60,
	}
	if cfg.PostalCode != "" {
		plan.PreNavigateURL = walmartBaseURL
		plan.Store = &fetch.StoreSelection{
			OpenCandidates: []fetch.Candidate{
				{Text: "choose pickup store"},
				{Text: "choose your store"},
				{Text: "pickup"},
				{Text: "delivery"},
				{Selector: "button[aria-label*='location']"},
			},
			InputSelectors: []string{
				"input[placeholder*='postal']",
				"input[name*='postal']",
				"input[type='search']",
				"input[type='text']",
			},
			PostalCode: cfg.PostalCode,
			ConfirmCandidates: []fetch.Candidate{
				{Text: "choose store"},
				{Text: "select"},
			},
		}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Client{
		name:    "Walmart",
		baseURL: walmartBaseURL,
		searchURL: func(query, _ string) string {
			return walmartBaseURL + "/search?q=" + url.QueryEscape(query)
		},
		fetcher:     fetch.NewBrowserFetcher("Walmart", browser.Headless, browser.NavTimeout, plan),
		fallback:    fetch.NewStaticFetcher("Walmart", browser.NavTimeout),
		extractor:   extract.New(extract.WithMarkers("/ip/"), extract.WithURLCleaner(cleanWalmartURL)),
		cache:       cache,
		ttl:         ttl,
		urlMarkers:  []string{"/ip/"},
		skuPattern:  walmartSKURegex,
		snapshotDir: snapshotDir,
	}
}

// cleanWalmartURL unwraps /wapcrs/track click-tracker links to the real
// /ip/ product page and strips query tracking from product URLs.
func cleanWalmartURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.Contains(u.Path, "/wapcrs/track") {
		if rd := u.Query().Get("rd"); rd != "" {
			if target, err := url.Parse(rd); err == nil && target.Path != "" {
				u = target
			}
		}
	}
	if strings.Contains(u.Path, "/ip/") {
		clean := *u
		clean.RawQuery = ""
		clean.Fragment = ""
		if clean.Host == "" {
			base, _ := url.Parse(walmartBaseURL)
			clean.Scheme = base.Scheme
			clean.Host = base.Host
		}
		return clean.String()
	}
	return u.String()
}
