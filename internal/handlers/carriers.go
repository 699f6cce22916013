package handlers

import (
	"net/http"

	"parcel-tracking/internal/carriers"
)

// CarrierHandler serves the carrier catalog
type CarrierHandler struct{}

// NewCarrierHandler creates a new carrier handler
func NewCarrierHandler() *CarrierHandler {
	return &CarrierHandler{}
}

// CarrierInfo describes one supported carrier
type CarrierInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TrackingURL string   `json:"trackingUrl"`
	Patterns    []string `json:"patterns"`
}

// GetCarriers handles GET /api/carriers
func (h *CarrierHandler) GetCarriers(w http.ResponseWriter, r *http.Request) {
	infos := make([]CarrierInfo, 0, len(carriers.Registry))
	for _, carrier := range carriers.Registry {
		patterns := make([]string, 0, len(carrier.Patterns))
		for _, pattern := range carrier.Patterns {
			patterns = append(patterns, pattern.String())
		}
		infos = append(infos, CarrierInfo{
			ID:          carrier.ID,
			Name:        carrier.Name,
			TrackingURL: carrier.TrackingURL,
			Patterns:    patterns,
		})
	}

	writeJSON(w, http.StatusOK, infos)
}

// DetectCarrier handles GET /api/carriers/detect?trackingNumber=...
func (h *CarrierHandler) DetectCarrier(w http.ResponseWriter, r *http.Request) {
	trackingNumber := r.URL.Query().Get("trackingNumber")
	if trackingNumber == "" {
		writeError(w, http.StatusBadRequest, "Tracking number is required")
		return
	}

	detected := carriers.Detect(trackingNumber)
	if detected == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"detected": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"detected":    true,
		"carrier":     detected.ID,
		"carrierName": detected.Name,
		"trackingUrl": carriers.BuildTrackingURL(detected, trackingNumber),
	})
}
