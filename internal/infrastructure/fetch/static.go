// Package fetch retrieves raw retailer page content. Two strategies exist:
// a direct HTTP request with a browser-like header set, and a rendered
// browser session for sites that only show prices after script execution.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/smartsave/backend/internal/domain"
)

// userAgent matches a current desktop Chrome build; several retailers serve
// stripped-down pages to unknown agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var browserHeaders = map[string]string{
	"User-Agent":      userAgent,
	"Accept-Language": "en-CA,en;q=0.9",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Connection":      "keep-alive",
}

// StaticFetcher performs direct HTTP fetches with retries and polite
// per-retailer rate limiting.
type StaticFetcher struct {
	retailer    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewStaticFetcher creates a fetcher for one retailer. One request per two
// seconds with a small burst keeps us well under anti-scraping thresholds.
func NewStaticFetcher(retailer string, timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &StaticFetcher{
		retailer: retailer,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(0.5), 3),
	}
}

// Fetch retrieves the page at pageURL. Failures classify into
// domain.ErrNetwork, domain.ErrFetchTimeout and *domain.BlockedError.
func (f *StaticFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return "", f.classify(err)
		}

		body, err := f.doRequest(ctx, pageURL)
		if err == nil {
			if looksBlocked(pageURL, body) {
				return "", &domain.BlockedError{Retailer: f.retailer, Advice: blockedAdvice}
			}
			return body, nil
		}
		if errors.Is(err, domain.ErrBlocked) {
			return "", err
		}

		log.Printf("[%s] fetch attempt %d failed: %v", f.retailer, attempt, err)
		lastErr = err
		select {
		case <-ctx.Done():
			return "", f.classify(ctx.Err())
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return "", f.classify(lastErr)
}

func (f *StaticFetcher) doRequest(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", f.classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", f.classify(err)
	}

	if resp.StatusCode >= 400 {
		if looksBlocked(resp.Request.URL.String(), string(body)) {
			return "", &domain.BlockedError{Retailer: f.retailer, Advice: blockedAdvice}
		}
		return "", fmt.Errorf("%w: status %d", domain.ErrNetwork, resp.StatusCode)
	}

	return string(body), nil
}

// classify maps transport-level errors onto the domain failure taxonomy.
func (f *StaticFetcher) classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNetwork),
		errors.Is(err, domain.ErrFetchTimeout),
		errors.Is(err, domain.ErrBlocked):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", f.retailer, domain.ErrFetchTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", f.retailer, domain.ErrFetchTimeout)
	}
	return fmt.Errorf("%s: %w: %v", f.retailer, domain.ErrNetwork, err)
}
