package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// HeadlessFetcher renders a tracking page in a headless browser. Used as a
// second attempt when the plain HTTP fetch hits a bot wall and headless
// mode is enabled.
type HeadlessFetcher struct {
	timeout   time.Duration
	userAgent string
}

// NewHeadlessFetcher creates a headless fetcher with the given per-page
// timeout.
func NewHeadlessFetcher(timeout time.Duration) *HeadlessFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HeadlessFetcher{
		timeout:   timeout,
		userAgent: userAgents[0],
	}
}

// Fetch navigates to the URL in a fresh browser context and returns the
// rendered document.
func (h *HeadlessFetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(h.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, h.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("headless fetch failed: %w", err)
	}

	return html, nil
}
