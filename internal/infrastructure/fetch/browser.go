package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/smartsave/backend/internal/domain"
)

// Candidate is one attempt in a declarative interaction list: either a CSS
// selector or a visible button text. Candidates are tried in order and every
// attempt is independently fallible and non-fatal.
type Candidate struct {
	Selector string
	Text     string
}

// StoreSelection describes how to pick a store before prices become visible
// (postal-code pickers, pickup/delivery dialogs).
type StoreSelection struct {
	OpenCandidates    []Candidate
	InputSelectors    []string
	PostalCode        string
	ConfirmCandidates []Candidate
}

// RenderPlan declares the per-retailer navigation a rendered fetch performs:
// optional pre-navigation (consent dismissal, store selection on the home
// page), then the search page itself with a scroll-until-stable loop that
// stops at TileGoal tiles or after three consecutive no-growth rounds.
type RenderPlan struct {
	PreNavigateURL string
	Dismiss        []Candidate
	Store          *StoreSelection
	WaitSelector   string
	TileSelector   string
	TileGoal       int
}

// Consent and load-more texts shared across retailers.
var defaultDismiss = []Candidate{
	{Text: "accept all"},
	{Text: "accept"},
	{Text: "got it"},
	{Selector: "button[aria-label='Close']"},
}

var loadMoreCandidates = []Candidate{
	{Text: "load more"},
	{Text: "show more"},
}

const (
	maxScrollRounds = 30
	scrollSettle    = time.Second
	candidateWait   = 1500 * time.Millisecond
)

// BrowserFetcher retrieves pages through a scripted headless-browser session.
type BrowserFetcher struct {
	retailer string
	headless bool
	timeout  time.Duration
	plan     RenderPlan
}

// NewBrowserFetcher creates a rendered fetcher for one retailer. timeout
// bounds the whole session, navigation and scrolling included.
func NewBrowserFetcher(retailer string, headless bool, timeout time.Duration, plan RenderPlan) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	if len(plan.Dismiss) == 0 {
		plan.Dismiss = defaultDismiss
	}
	return &BrowserFetcher{retailer: retailer, headless: headless, timeout: timeout, plan: plan}
}

// Fetch renders pageURL and returns the final DOM serialized as HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-CA"),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var html, finalURL string
	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(f.preNavigate),
		chromedp.Navigate(pageURL),
		chromedp.Sleep(2500*time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tryCandidates(ctx, f.plan.Dismiss)
			return nil
		}),
		chromedp.ActionFunc(f.waitForTiles),
		chromedp.ActionFunc(f.scrollForTiles),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", f.classify(err)
	}

	if looksBlocked(finalURL, html) {
		return "", &domain.BlockedError{Retailer: f.retailer, Advice: blockedAdvice}
	}
	return html, nil
}

// preNavigate visits the home page first when the plan needs consent
// dismissal or store selection before searching.
func (f *BrowserFetcher) preNavigate(ctx context.Context) error {
	if f.plan.PreNavigateURL == "" {
		return nil
	}
	if err := chromedp.Run(ctx,
		chromedp.Navigate(f.plan.PreNavigateURL),
		chromedp.Sleep(1500*time.Millisecond),
	); err != nil {
		return err
	}
	tryCandidates(ctx, f.plan.Dismiss)
	if f.plan.Store != nil {
		f.selectStore(ctx, f.plan.Store)
	}
	return nil
}

// selectStore opens the store picker, fills the postal code and confirms.
// Every step is best effort; a retailer that already has a store selected
// simply falls through.
func (f *BrowserFetcher) selectStore(ctx context.Context, sel *StoreSelection) {
	if !tryCandidates(ctx, sel.OpenCandidates) {
		log.Printf("[%s] store picker did not open; continuing without selection", f.retailer)
		return
	}

	filled := false
	for _, input := range sel.InputSelectors {
		ictx, cancel := context.WithTimeout(ctx, candidateWait)
		err := chromedp.Run(ictx, chromedp.SendKeys(input, sel.PostalCode, chromedp.ByQuery))
		cancel()
		if err == nil {
			filled = true
			break
		}
	}
	if !filled {
		return
	}

	_ = chromedp.Run(ctx, chromedp.Sleep(1200*time.Millisecond))
	tryCandidates(ctx, sel.ConfirmCandidates)
	_ = chromedp.Run(ctx, chromedp.Sleep(600*time.Millisecond))
}

func (f *BrowserFetcher) waitForTiles(ctx context.Context) error {
	if f.plan.WaitSelector == "" {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, 9*time.Second)
	defer cancel()
	if err := chromedp.Run(wctx, chromedp.WaitVisible(f.plan.WaitSelector, chromedp.ByQuery)); err != nil {
		// Lazy grids sometimes render after scrolling; keep going.
		log.Printf("[%s] no tiles after wait; continuing with current DOM", f.retailer)
	}
	return nil
}

// scrollForTiles scrolls and clicks load-more controls until the tile goal
// is reached or the count stops growing for three consecutive rounds.
func (f *BrowserFetcher) scrollForTiles(ctx context.Context) error {
	sel := f.plan.TileSelector
	if sel == "" {
		return nil
	}
	goal := f.plan.TileGoal
	if goal <= 0 {
		goal = 24
	}

	last, stale := 0, 0
	for i := 0; i < maxScrollRounds; i++ {
		if err := chromedp.Run(ctx,
			chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil),
			chromedp.Sleep(scrollSettle),
		); err != nil {
			return err
		}
		tryCandidates(ctx, loadMoreCandidates)

		var count int
		countJS := fmt.Sprintf("document.querySelectorAll(%s).length", strconv.Quote(sel))
		if err := chromedp.Run(ctx, chromedp.Evaluate(countJS, &count)); err != nil {
			return err
		}
		if count >= goal {
			break
		}
		if count <= last {
			stale++
		} else {
			stale = 0
			last = count
		}
		if stale >= 3 {
			break
		}
	}
	return nil
}

// tryCandidates clicks the first candidate that works. Returns whether any
// attempt succeeded.
func tryCandidates(ctx context.Context, candidates []Candidate) bool {
	for _, c := range candidates {
		if clickCandidate(ctx, c) {
			return true
		}
	}
	return false
}

func clickCandidate(ctx context.Context, c Candidate) bool {
	if c.Selector != "" {
		cctx, cancel := context.WithTimeout(ctx, candidateWait)
		err := chromedp.Run(cctx, chromedp.Click(c.Selector, chromedp.ByQuery, chromedp.NodeVisible))
		cancel()
		return err == nil
	}

	var clicked bool
	js := fmt.Sprintf(clickByTextJS, strconv.Quote(strings.ToLower(c.Text)))
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		return false
	}
	return clicked
}

// clickByTextJS clicks the first visible button whose text matches, since
// CSS alone cannot select by text content.
const clickByTextJS = `(() => {
	const want = %s;
	for (const b of document.querySelectorAll("button, a[role='button']")) {
		const t = (b.textContent || "").trim().toLowerCase();
		if (t === want || t.startsWith(want)) { b.click(); return true; }
	}
	return false;
})()`

func (f *BrowserFetcher) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", f.retailer, domain.ErrFetchTimeout)
	}
	return fmt.Errorf("%s: %w: %v", f.retailer, domain.ErrNetwork, err)
}
