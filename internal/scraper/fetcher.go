package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// botSignatures are lowercase markers of anti-bot interstitials. A page
// containing any of them is treated as blocked, not parsed.
var botSignatures = []string{
	"verify you are human",
	"captcha",
	"challenge-running",
	"cf-browser-verification",
	"attention required",
	"access denied",
	"please enable javascript",
	"just a moment",
	"checking your browser",
	"ddos protection",
	"security check",
	"bot detection",
	"are you a robot",
	"prove you're human",
	"human verification",
	"cloudflare",
	"incapsula",
	"distil networks",
	"perimeterx",
	"datadome",
}

// userAgents is the pool rotated across direct-scrape requests
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// probeUserAgent is the single fixed identity used by cross-carrier probes
const probeUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// IsBlocked reports whether the page looks like an anti-bot interstitial
// rather than tracking content.
func IsBlocked(html string) bool {
	lower := strings.ToLower(html)
	for _, signature := range botSignatures {
		if strings.Contains(lower, signature) {
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx response from a carrier page
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// Fetcher retrieves carrier tracking pages with browser-like headers
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher. The timeout bounds each whole request,
// including redirects and body read.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// randomUserAgent picks one identity from the pool. The global rand source
// is used because fetches run concurrently during probes.
func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Fetch retrieves a tracking page with a rotating user agent and full
// browser header set.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.fetch(ctx, url, randomUserAgent(), true)
}

// FetchProbe retrieves a page the way a probe does: fixed user agent and a
// reduced header set.
func (f *Fetcher) FetchProbe(ctx context.Context, url string) (string, error) {
	return f.fetch(ctx, url, probeUserAgent, false)
}

func (f *Fetcher) fetch(ctx context.Context, url, userAgent string, fullHeaders bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Headers mimic a real browser. Accept-Encoding is left to the HTTP
	// client so it decompresses transparently.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if fullHeaders {
		req.Header.Set("Connection", "keep-alive")
		req.Header.Set("Upgrade-Insecure-Requests", "1")
		req.Header.Set("Cache-Control", "max-age=0")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	return string(body), nil
}
