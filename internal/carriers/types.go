package carriers

import "time"

// TrackingStatus represents the canonical status of a shipment
type TrackingStatus string

const (
	StatusPending        TrackingStatus = "pending"
	StatusInfoReceived   TrackingStatus = "info_received"
	StatusInTransit      TrackingStatus = "in_transit"
	StatusOutForDelivery TrackingStatus = "out_for_delivery"
	StatusDelivered      TrackingStatus = "delivered"
	StatusException      TrackingStatus = "exception"
	StatusFailed         TrackingStatus = "failed"
	StatusExpired        TrackingStatus = "expired"
	StatusUnknown        TrackingStatus = "unknown"
)

// TrackingEvent represents a single tracking event in the shipment's journey.
// Timestamp is nil when the source provided no parseable date; callers must
// never substitute the current time for ordering purposes.
type TrackingEvent struct {
	Timestamp   *time.Time     `json:"timestamp"`
	Location    *string        `json:"location"`
	Description string         `json:"description"`
	Status      TrackingStatus `json:"status"`
}

// Result is the canonical output of a retrieval attempt. Both the scraper path
// and the aggregator fallback produce this shape, so downstream callers are
// source-agnostic. Unknown values are explicit nulls, never missing keys.
type Result struct {
	Success            bool            `json:"success"`
	Blocked            bool            `json:"blocked"`
	Carrier            string          `json:"carrier"`
	CarrierName        string          `json:"carrierName"`
	CarrierTrackingURL string          `json:"carrierTrackingUrl"`
	TrackingNumber     string          `json:"trackingNumber"`
	Status             TrackingStatus  `json:"status"`
	StatusMessage      string          `json:"statusMessage"`
	ETA                *time.Time      `json:"eta"`
	DeliveredAt        *time.Time      `json:"deliveredAt"`
	Origin             *string         `json:"origin"`
	Destination        *string         `json:"destination"`
	CurrentLocation    *string         `json:"currentLocation"`
	Events             []TrackingEvent `json:"events"`
	Error              string          `json:"error,omitempty"`
	Cached             bool            `json:"cached"`
}

// Source identifies which retrieval tier produced a result
type Source string

const (
	SourceScraper      Source = "scraper"
	SourceScraperProbe Source = "scraper-probe"
	SourceTrackingMore Source = "trackingmore"
)
