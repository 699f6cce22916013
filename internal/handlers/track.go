package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"parcel-tracking/internal/cache"
	"parcel-tracking/internal/carriers"
	"parcel-tracking/internal/ratelimit"
	"parcel-tracking/internal/services"
)

// TrackHandler handles tracking lookups
type TrackHandler struct {
	service *services.TrackingService
	limiter *ratelimit.RefreshLimiter
	config  ratelimit.Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(service *services.TrackingService, limiter *ratelimit.RefreshLimiter, config ratelimit.Config, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{
		service: service,
		limiter: limiter,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// EventResponse is a tracking event shaped for the API. Every event gets a
// fresh ID, and events whose source carried no timestamp get the current
// time here at the boundary, never earlier in the pipeline.
type EventResponse struct {
	ID          string                  `json:"id"`
	Timestamp   time.Time               `json:"timestamp"`
	Location    *string                 `json:"location"`
	Description string                  `json:"description"`
	Status      carriers.TrackingStatus `json:"status"`
}

// TrackResponse is the API shape of a tracking outcome
type TrackResponse struct {
	Success            bool                    `json:"success"`
	Blocked            bool                    `json:"blocked"`
	Carrier            string                  `json:"carrier"`
	CarrierName        string                  `json:"carrierName"`
	CarrierTrackingURL string                  `json:"carrierTrackingUrl"`
	TrackingNumber     string                  `json:"trackingNumber"`
	Status             carriers.TrackingStatus `json:"status"`
	StatusMessage      string                  `json:"statusMessage"`
	ETA                *time.Time              `json:"eta"`
	DeliveredAt        *time.Time              `json:"deliveredAt"`
	Origin             *string                 `json:"origin"`
	Destination        *string                 `json:"destination"`
	CurrentLocation    *string                 `json:"currentLocation"`
	Events             []EventResponse         `json:"events"`
	Error              string                  `json:"error,omitempty"`
	Cached             bool                    `json:"cached"`
	Source             carriers.Source         `json:"source"`
	FallbackAttempted  bool                    `json:"fallbackAttempted,omitempty"`
	FallbackAvailable  bool                    `json:"fallbackAvailable"`
	FallbackError      string                  `json:"fallbackError,omitempty"`
	Message            string                  `json:"message,omitempty"`
}

// ErrorResponse is the API error shape
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// Track handles POST /api/track
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req services.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.TrackingNumber) == "" {
		writeError(w, http.StatusBadRequest, "Tracking number is required")
		return
	}

	if req.ForceRefresh {
		key := cache.Key(h.refreshCarrierID(req), req.TrackingNumber)
		result := h.limiter.Check(h.config, key)
		if result.ShouldBlock {
			retryAfter := int(result.RemainingTime.Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			writeError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Refresh cooldown active, try again in %s", result.RemainingTime.Round(time.Second)))
			return
		}
	}

	outcome := h.service.Track(r.Context(), req)

	h.logger.Info("Tracking lookup completed",
		"tracking_number", req.TrackingNumber,
		"carrier", outcome.Result.Carrier,
		"status", outcome.Result.Status,
		"source", outcome.Source,
		"success", outcome.Result.Success,
		"cached", outcome.Result.Cached)

	writeJSON(w, http.StatusOK, h.buildResponse(outcome))
}

// refreshCarrierID resolves the carrier used in the cooldown key, mirroring
// how the service resolves it for cache invalidation.
func (h *TrackHandler) refreshCarrierID(req services.TrackRequest) string {
	if req.Carrier != "" {
		return req.Carrier
	}
	if detected := carriers.Detect(req.TrackingNumber); detected != nil {
		return detected.ID
	}
	return "unknown"
}

// buildResponse shapes an outcome for the wire
func (h *TrackHandler) buildResponse(outcome *services.Outcome) *TrackResponse {
	result := outcome.Result

	events := make([]EventResponse, 0, len(result.Events))
	now := h.now()
	for _, event := range result.Events {
		timestamp := now
		if event.Timestamp != nil {
			timestamp = *event.Timestamp
		}
		events = append(events, EventResponse{
			ID:          uuid.NewString(),
			Timestamp:   timestamp,
			Location:    event.Location,
			Description: event.Description,
			Status:      event.Status,
		})
	}

	return &TrackResponse{
		Success:            result.Success,
		Blocked:            result.Blocked,
		Carrier:            result.Carrier,
		CarrierName:        result.CarrierName,
		CarrierTrackingURL: result.CarrierTrackingURL,
		TrackingNumber:     result.TrackingNumber,
		Status:             result.Status,
		StatusMessage:      result.StatusMessage,
		ETA:                result.ETA,
		DeliveredAt:        result.DeliveredAt,
		Origin:             result.Origin,
		Destination:        result.Destination,
		CurrentLocation:    result.CurrentLocation,
		Events:             events,
		Error:              result.Error,
		Cached:             result.Cached,
		Source:             outcome.Source,
		FallbackAttempted:  outcome.FallbackAttempted,
		FallbackAvailable:  outcome.FallbackAvailable,
		FallbackError:      outcome.FallbackError,
		Message:            outcome.Message,
	}
}
