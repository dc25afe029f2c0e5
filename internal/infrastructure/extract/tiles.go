// Package extract implements heuristic product-tile extraction from retailer
// search pages. The pages are noisy, script-rendered HTML whose layout
// changes without notice, so everything here is best effort: candidates that
// cannot be confirmed as priced product tiles are dropped silently.
package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/smartsave/backend/internal/domain"
)

var (
	// A price must carry a dollar sign; a bare "1.89" is usually a size
	// ("1.89 L"), not a price.
	priceRegex = regexp.MustCompile(`\$\s*(\d+\.\d{2})`)

	unitPriceRegex = regexp.MustCompile(`(?i)\$?\s*\d+(?:\.\d+)?\s*/\s*(?:100\s*g|kg|g|L|mL|ea|each|ct)`)

	tokenSplitRegex = regexp.MustCompile(`[\s,/]+`)
)

// defaultMarkers are URL path fragments that identify real product pages
// across the retailers we have seen.
var defaultMarkers = []string{
	"/product/", "/products/", "/ip/", "/en/ip/", "/p/", "/pd/", "/item/", "/sku/", "/shop/p",
}

// blocklist holds navigation and boilerplate texts that anchor scanning
// keeps picking up as false product titles.
var blocklist = map[string]struct{}{
	"we respect your privacy": {},
	"cookie settings":         {},
	"customer service":        {},
	"about us":                {},
	"our company":             {},
	"join our team":           {},
	"retail careers":          {},
	"pharmacy careers":        {},
	"connect with us":         {},
	"hi guest":                {},
	"inspiration":             {},
	"deals":                   {},
	"canadian products":       {},
	"list review":             {},
	"the content you are looking for is no longer available.": {},
}

// unit tokens that terminate brand detection in a title
var brandStopTokens = map[string]struct{}{
	"%": {}, "ml": {}, "l": {}, "g": {}, "kg": {}, "x": {},
}

const maxAncestorDepth = 6

// TileExtractor scans rendered page content for product tiles. The zero
// value is not usable; construct with New.
type TileExtractor struct {
	markers  []string
	cleanURL func(string) string
}

// Option configures a TileExtractor.
type Option func(*TileExtractor)

// WithMarkers narrows the product-URL patterns the extractor accepts.
func WithMarkers(markers ...string) Option {
	return func(e *TileExtractor) { e.markers = markers }
}

// WithURLCleaner installs a hook that canonicalizes anchor URLs before the
// product-pattern check (e.g. unwrapping retailer click trackers).
func WithURLCleaner(clean func(string) string) Option {
	return func(e *TileExtractor) { e.cleanURL = clean }
}

// New creates a TileExtractor with the generic marker set.
func New(opts ...Option) *TileExtractor {
	e := &TileExtractor{markers: defaultMarkers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract scans content for product tiles and returns up to limit records.
// Empty or garbled content yields an empty result, never an error. Records
// without a confirmed price or a product-page URL are never emitted.
func (e *TileExtractor) Extract(content, baseURL string, limit int) []domain.ProductRecord {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var records []domain.ProductRecord
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		pageURL := e.resolveURL(base, href)
		if pageURL == "" || !e.isProductURL(base, pageURL) {
			return true
		}

		title := resolveTitle(a)
		if title == "" || rejectedTitle(title) {
			return true
		}
		title = truncateTitle(title)

		price, unitText := resolvePrice(a)
		if price == nil {
			return true
		}

		key := strings.ToLower(title) + "|" + pageURL
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}

		records = append(records, domain.ProductRecord{
			Title:         title,
			Brand:         brandFromTitle(title),
			Price:         price,
			PriceUnitText: unitText,
			Image:         resolveImage(a, base),
			URL:           pageURL,
		})
		return limit <= 0 || len(records) < limit
	})

	return records
}

func (e *TileExtractor) resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	resolved := ref.String()
	if e.cleanURL != nil {
		resolved = e.cleanURL(resolved)
	}
	return resolved
}

func (e *TileExtractor) isProductURL(base *url.URL, pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	// Cross-site anchors are never this retailer's products.
	if base != nil && base.Host != "" && parsed.Host != "" && !strings.Contains(parsed.Host, base.Host) {
		return false
	}
	lower := strings.ToLower(pageURL)
	for _, marker := range e.markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// resolveTitle prefers the anchor's accessible label, then its own text,
// then the first nearby heading-like element.
func resolveTitle(a *goquery.Selection) string {
	if label, ok := a.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		return strings.TrimSpace(label)
	}
	if text := collapseSpace(a.Text()); text != "" {
		return text
	}
	for _, sel := range []string{"[data-automation-id='product-title']", "h2", "h3", "span"} {
		if text := collapseSpace(a.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	parent := a.Parent()
	if parent.Length() > 0 {
		if text := collapseSpace(parent.Find("h2, h3").First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func rejectedTitle(title string) bool {
	norm := strings.ToLower(strings.TrimSpace(title))
	if _, blocked := blocklist[norm]; blocked {
		return true
	}
	return strings.HasPrefix(norm, "results for")
}

// resolvePrice searches the anchor's own text, then parent containers up to
// a bounded depth, for a currency-formatted amount. Unit-price text ("$1.20
// /100g") is captured from the same chain when present.
func resolvePrice(a *goquery.Selection) (*decimal.Decimal, string) {
	var price *decimal.Decimal
	var unitText string

	node := a
	for depth := 0; depth <= maxAncestorDepth && node.Length() > 0; depth++ {
		text := collapseSpace(node.Text())
		if price == nil {
			price = parsePrice(text)
		}
		if unitText == "" {
			if m := unitPriceRegex.FindString(text); m != "" {
				unitText = strings.TrimSpace(m)
			}
		}
		if price != nil {
			break
		}
		node = node.Parent()
	}
	return price, unitText
}

// parsePrice extracts a dollar amount from text. Thousands separators are
// stripped first so "$1,299.00" parses.
func parsePrice(text string) *decimal.Decimal {
	m := priceRegex.FindStringSubmatch(strings.ReplaceAll(text, ",", ""))
	if m == nil {
		return nil
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return nil
	}
	return &d
}

// resolveImage walks the same ancestor chain for the first image with a
// resolvable source.
func resolveImage(a *goquery.Selection, base *url.URL) string {
	node := a
	for depth := 0; depth <= maxAncestorDepth && node.Length() > 0; depth++ {
		src, ok := node.Find("img[src]").First().Attr("src")
		if ok && strings.TrimSpace(src) != "" {
			if ref, err := url.Parse(strings.TrimSpace(src)); err == nil {
				if base != nil {
					ref = base.ResolveReference(ref)
				}
				return ref.String()
			}
		}
		node = node.Parent()
	}
	return ""
}

// brandFromTitle takes the leading words of the title until the first
// numeric or unit token, capped at three words.
func brandFromTitle(title string) string {
	parts := tokenSplitRegex.Split(strings.TrimSpace(title), -1)
	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		low := strings.ToLower(p)
		if _, stop := brandStopTokens[low]; stop || strings.ContainsAny(p, "0123456789") {
			break
		}
		out = append(out, p)
		if len(out) >= 3 {
			break
		}
	}
	return strings.Join(out, " ")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateTitle caps a title at MaxTitleLen bytes without splitting a rune.
func truncateTitle(title string) string {
	if len(title) <= domain.MaxTitleLen {
		return title
	}
	cut := domain.MaxTitleLen
	for cut > 0 && !utf8.RuneStart(title[cut]) {
		cut--
	}
	return title[:cut]
}
