package services

import (
	"context"
	"log/slog"

	"parcel-tracking/internal/cache"
	"parcel-tracking/internal/carriers"
)

// Scraper is the direct-scrape tier: single-carrier scrape plus the
// all-carrier probe.
type Scraper interface {
	Scrape(ctx context.Context, trackingNumber, carrierIDHint string) *carriers.Result
	ProbeAll(ctx context.Context, trackingNumber string) *carriers.Result
}

// Aggregator is the paid fallback tier
type Aggregator interface {
	IsConfigured() bool
	Track(ctx context.Context, trackingNumber, courierCodeHint string) *carriers.Result
}

// TrackRequest describes one lookup
type TrackRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier,omitempty"`
	ForceRefresh   bool   `json:"forceRefresh,omitempty"`
	UseFallback    bool   `json:"useFallback,omitempty"`
}

// Outcome is a result plus retrieval metadata: which tier produced it and,
// on total failure, what was attempted.
type Outcome struct {
	Result *carriers.Result
	Source carriers.Source

	FallbackAttempted bool
	FallbackAvailable bool
	FallbackError     string
	Message           string
}

// TrackingService sequences the retrieval tiers: direct scrape, then the
// all-carrier probe, then the aggregator. Every expected failure surfaces
// as an unsuccessful Outcome, never as an error.
type TrackingService struct {
	scraper    Scraper
	aggregator Aggregator
	cache      *cache.Manager
	logger     *slog.Logger
}

// NewTrackingService creates the tier sequencer. cacheManager may be nil
// when caching is disabled; aggregator must be non-nil but may be
// unconfigured.
func NewTrackingService(scraper Scraper, aggregator Aggregator, cacheManager *cache.Manager, logger *slog.Logger) *TrackingService {
	return &TrackingService{
		scraper:    scraper,
		aggregator: aggregator,
		cache:      cacheManager,
		logger:     logger,
	}
}

// Track runs the tier chain for one number
func (s *TrackingService) Track(ctx context.Context, req TrackRequest) *Outcome {
	normalized := carriers.Normalize(req.TrackingNumber)

	if req.ForceRefresh && s.cache != nil {
		carrierID := req.Carrier
		if carrierID == "" {
			if detected := carriers.Detect(normalized); detected != nil {
				carrierID = detected.ID
			} else {
				carrierID = "unknown"
			}
		}
		s.cache.InvalidateFor(carrierID, normalized)
		s.logger.Info("cache invalidated for refresh", "carrier", carrierID, "tracking_number", normalized)
	}

	// Explicit fallback request skips the scrape tiers entirely
	if req.UseFallback && s.aggregator.IsConfigured() {
		result := s.aggregator.Track(ctx, normalized, req.Carrier)
		return &Outcome{Result: result, Source: carriers.SourceTrackingMore}
	}

	result := s.scraper.Scrape(ctx, normalized, req.Carrier)
	if result.Success && len(result.Events) > 0 {
		return &Outcome{Result: result, Source: carriers.SourceScraper}
	}

	s.logger.Info("initial scrape failed, probing all carriers", "tracking_number", normalized)

	probeResult := s.scraper.ProbeAll(ctx, normalized)
	if probeResult.Success && len(probeResult.Events) > 0 {
		return &Outcome{Result: probeResult, Source: carriers.SourceScraperProbe}
	}

	if !s.aggregator.IsConfigured() {
		message := probeResult.Error
		if message == "" {
			message = "Could not retrieve tracking information from any carrier."
		}
		return &Outcome{
			Result:            probeResult,
			Source:            carriers.SourceScraperProbe,
			FallbackAvailable: false,
			Message:           message,
		}
	}

	s.logger.Info("all scrapers failed, trying aggregator", "tracking_number", normalized)

	// The probe may have identified the carrier even without events; pass
	// that along as a hint.
	hint := req.Carrier
	if probeResult.Carrier != "unknown" {
		hint = probeResult.Carrier
	}

	fallbackResult := s.aggregator.Track(ctx, normalized, hint)
	if fallbackResult.Success && len(fallbackResult.Events) > 0 {
		return &Outcome{Result: fallbackResult, Source: carriers.SourceTrackingMore}
	}

	// Every tier failed; report what happened and still hand the caller a
	// carrier page URL when one is known.
	if probeResult.CarrierTrackingURL == "" {
		probeResult.CarrierTrackingURL = fallbackResult.CarrierTrackingURL
	}

	return &Outcome{
		Result:            probeResult,
		Source:            carriers.SourceScraperProbe,
		FallbackAttempted: true,
		FallbackAvailable: true,
		FallbackError:     fallbackResult.Error,
		Message:           "Could not retrieve tracking information from any source. The tracking number may be invalid or not yet in the system.",
	}
}
