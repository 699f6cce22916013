package scraper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"parcel-tracking/internal/carriers"
)

// probeBlockSignatures is the reduced bot-wall check used during probes.
// Probes give up on a carrier at the first hint of a challenge page instead
// of burning the full signature list.
var probeBlockSignatures = []string{"captcha", "verify you are human", "challenge-running", "cloudflare"}

// errProbeDone aborts the remaining probe goroutines once one has found
// events.
var errProbeDone = errors.New("probe found a result")

// ProbeAll identifies the carrier for an ambiguous number by asking them
// all. The detected carrier gets a full scrape first; the rest are probed
// concurrently, and the first carrier to yield events cancels the others.
func (s *Scraper) ProbeAll(ctx context.Context, trackingNumber string) *carriers.Result {
	normalized := carriers.Normalize(trackingNumber)

	detected := carriers.Detect(normalized)
	if detected != nil {
		result := s.Scrape(ctx, normalized, detected.ID)
		if result.Success && len(result.Events) > 0 {
			return result
		}
	}

	var candidates []*carriers.Config
	for _, carrier := range carriers.Registry {
		if detected != nil && carrier.ID == detected.ID {
			continue
		}
		candidates = append(candidates, carrier)
	}

	winner := make(chan *carriers.Result, 1)

	g, gctx := errgroup.WithContext(ctx)
	for _, carrier := range candidates {
		carrier := carrier
		g.Go(func() error {
			result := s.probeCarrier(gctx, carrier, normalized)
			if result == nil {
				return nil
			}
			select {
			case winner <- result:
			default:
			}
			return errProbeDone
		})
	}
	g.Wait()

	select {
	case result := <-winner:
		return result
	default:
	}

	result := baseResult(detected, "", normalized)
	if detected != nil {
		result.CarrierTrackingURL = s.buildURL(detected, normalized)
	}
	result.StatusMessage = "Could not find tracking information from any carrier"
	result.Error = "No carrier returned tracking data for this number"
	return result
}

// probeCarrier fetches one carrier's page with the fixed probe identity and
// parses it. Returns nil unless the page yields events; probes never cache
// and never report partial failures.
func (s *Scraper) probeCarrier(ctx context.Context, carrier *carriers.Config, normalized string) *carriers.Result {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	trackingURL := s.buildURL(carrier, normalized)

	html, err := s.probeFetcher.FetchProbe(probeCtx, trackingURL)
	if err != nil {
		return nil
	}

	lower := strings.ToLower(html)
	for _, signature := range probeBlockSignatures {
		if strings.Contains(lower, signature) {
			return nil
		}
	}

	var events []carriers.TrackingEvent
	var eta *time.Time

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		events = parseHTMLTimeline(doc, carrier)
	}
	if len(events) == 0 {
		if blob := ExtractEmbeddedJSON(html); blob != nil {
			events, eta = extractFromJSON(blob)
		}
	}
	if len(events) == 0 {
		return nil
	}

	status, statusMessage, deliveredAt := deriveStatus(events)

	result := baseResult(carrier, trackingURL, normalized)
	result.Success = true
	result.Status = status
	result.StatusMessage = statusMessage
	result.ETA = eta
	result.DeliveredAt = deliveredAt
	result.Events = events
	result.CurrentLocation = events[0].Location
	return result
}
