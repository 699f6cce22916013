package scraper

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"parcel-tracking/internal/cache"
	"parcel-tracking/internal/carriers"
)

const (
	// DefaultScrapeTimeout bounds a direct carrier-page fetch
	DefaultScrapeTimeout = 15 * time.Second
	// DefaultProbeTimeout bounds each per-carrier probe fetch
	DefaultProbeTimeout = 10 * time.Second
)

// Config holds scraper tuning knobs. Zero values fall back to defaults.
type Config struct {
	ScrapeTimeout time.Duration
	ProbeTimeout  time.Duration
	Headless      *HeadlessFetcher
}

// Scraper retrieves and parses carrier tracking pages. Results are cached
// by status-aware TTL when a cache manager is supplied.
type Scraper struct {
	fetcher      *Fetcher
	probeFetcher *Fetcher
	cache        *cache.Manager
	headless     *HeadlessFetcher

	scrapeTimeout time.Duration
	probeTimeout  time.Duration

	// urlTemplates overrides carrier URL templates, keyed by carrier id.
	// Used by tests to point the scraper at local servers.
	urlTemplates map[string]string
}

// New creates a scraper. cacheManager may be nil to disable caching.
func New(cacheManager *cache.Manager, cfg Config) *Scraper {
	if cfg.ScrapeTimeout == 0 {
		cfg.ScrapeTimeout = DefaultScrapeTimeout
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}

	return &Scraper{
		fetcher:       NewFetcher(cfg.ScrapeTimeout),
		probeFetcher:  NewFetcher(cfg.ProbeTimeout),
		cache:         cacheManager,
		headless:      cfg.Headless,
		scrapeTimeout: cfg.ScrapeTimeout,
		probeTimeout:  cfg.ProbeTimeout,
	}
}

// buildURL resolves the tracking URL for a carrier, honoring test overrides
func (s *Scraper) buildURL(carrier *carriers.Config, trackingNumber string) string {
	if template, ok := s.urlTemplates[carrier.ID]; ok {
		return strings.Replace(template, "{TRACKING_NUMBER}", url.QueryEscape(trackingNumber), 1)
	}
	return carriers.BuildTrackingURL(carrier, trackingNumber)
}

// baseResult fills the identity fields shared by every outcome
func baseResult(carrier *carriers.Config, trackingURL, trackingNumber string) *carriers.Result {
	result := &carriers.Result{
		Carrier:            "unknown",
		CarrierName:        "Unknown Carrier",
		CarrierTrackingURL: trackingURL,
		TrackingNumber:     trackingNumber,
		Status:             carriers.StatusUnknown,
		Events:             []carriers.TrackingEvent{},
	}
	if carrier != nil {
		result.Carrier = carrier.ID
		result.CarrierName = carrier.Name
	}
	return result
}

// Scrape fetches and parses the tracking page for one number. Expected
// failures (unknown carrier, HTTP errors, bot walls, empty pages) come back
// as unsuccessful results, never as panics or nils.
func (s *Scraper) Scrape(ctx context.Context, trackingNumber, carrierIDHint string) *carriers.Result {
	normalized := carriers.Normalize(trackingNumber)

	var carrier *carriers.Config
	if carrierIDHint != "" {
		carrier = carriers.ByID(carrierIDHint)
	}
	if carrier == nil {
		carrier = carriers.Detect(normalized)
	}

	if carrier == nil {
		result := baseResult(nil, "", normalized)
		result.StatusMessage = "Could not detect carrier from tracking number"
		result.Error = "Unknown carrier - please specify carrier manually"
		return result
	}

	trackingURL := s.buildURL(carrier, normalized)
	cacheKey := cache.Key(carrier.ID, normalized)

	if s.cache != nil {
		if cached := s.cache.Get(cacheKey); cached != nil {
			copied := *cached
			copied.Cached = true
			return &copied
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.scrapeTimeout)
	defer cancel()

	html, err := s.fetcher.Fetch(fetchCtx, trackingURL)
	if err != nil {
		result := baseResult(carrier, trackingURL, normalized)
		if httpErr, ok := err.(*HTTPError); ok {
			result.StatusMessage = httpErr.Error()
			result.Error = "Failed to fetch tracking page (" + httpErr.Error() + ")"
		} else {
			result.StatusMessage = "Failed to fetch tracking information"
			result.Error = err.Error()
		}
		return result
	}

	if IsBlocked(html) {
		retried := false
		if s.headless != nil {
			if rendered, err := s.headless.Fetch(ctx, trackingURL); err == nil && !IsBlocked(rendered) {
				log.Printf("INFO: Headless fetch cleared bot wall for %s/%s", carrier.ID, normalized)
				html = rendered
				retried = true
			}
		}
		if !retried {
			result := baseResult(carrier, trackingURL, normalized)
			result.Blocked = true
			result.StatusMessage = "Carrier requires human verification"
			result.Error = "Bot detection triggered - please open carrier tracking page directly"
			return result
		}
	}

	result := s.parsePage(html, carrier, trackingURL, normalized)

	if result.Success && s.cache != nil {
		s.cache.Set(cacheKey, result)
	}

	return result
}

// parsePage runs the carrier's parse strategy over fetched HTML. The
// embedded-JSON strategy falls back to the HTML timeline when the blob
// yields nothing.
func (s *Scraper) parsePage(html string, carrier *carriers.Config, trackingURL, normalized string) *carriers.Result {
	var events []carriers.TrackingEvent
	var eta *time.Time

	if carrier.Strategy == carriers.ParseJSONEmbedded {
		if blob := ExtractEmbeddedJSON(html); blob != nil {
			events, eta = extractFromJSON(blob)
		}
	}

	if len(events) == 0 {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
			events = parseHTMLTimeline(doc, carrier)
		}
	}

	status, statusMessage, deliveredAt := deriveStatus(events)

	result := baseResult(carrier, trackingURL, normalized)
	result.Success = len(events) > 0
	result.Status = status
	result.StatusMessage = statusMessage
	result.ETA = eta
	result.DeliveredAt = deliveredAt
	if len(events) > 0 {
		result.Events = events
		result.CurrentLocation = events[0].Location
	}

	return result
}

// ScrapeRequest pairs a tracking number with an optional carrier id
type ScrapeRequest struct {
	TrackingNumber string
	Carrier        string
}

// ScrapeMultiple scrapes several numbers concurrently. Results come back in
// request order; individual failures stay local to their slot.
func (s *Scraper) ScrapeMultiple(ctx context.Context, requests []ScrapeRequest) []*carriers.Result {
	results := make([]*carriers.Result, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			results[i] = s.Scrape(gctx, req.TrackingNumber, req.Carrier)
			return nil
		})
	}
	g.Wait()

	return results
}
