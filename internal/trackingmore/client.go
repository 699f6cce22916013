package trackingmore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"parcel-tracking/internal/carriers"
)

// DefaultBaseURL is the TrackingMore v4 API root
const DefaultBaseURL = "https://api.trackingmore.com/v4"

// placeholderKey is the sample value shipped in env templates; treated the
// same as no key at all.
const placeholderKey = "your-trackingmore-api-key"

// statusMap translates TrackingMore delivery statuses to canonical ones
var statusMap = map[string]carriers.TrackingStatus{
	"pending":      carriers.StatusPending,
	"notfound":     carriers.StatusPending,
	"inforeceived": carriers.StatusInfoReceived,
	"transit":      carriers.StatusInTransit,
	"pickup":       carriers.StatusOutForDelivery,
	"delivered":    carriers.StatusDelivered,
	"undelivered":  carriers.StatusException,
	"exception":    carriers.StatusException,
	"expired":      carriers.StatusExpired,
}

func mapStatus(deliveryStatus string) carriers.TrackingStatus {
	if status, ok := statusMap[strings.ToLower(deliveryStatus)]; ok {
		return status
	}
	return carriers.StatusUnknown
}

// mapCheckpointStatus resolves a checkpoint's status, falling back to its
// substatus when the primary status is missing or unrecognized. Substatuses
// are the status name with a numeric suffix, e.g. "transit003".
func mapCheckpointStatus(deliveryStatus, substatus string) carriers.TrackingStatus {
	if status := mapStatus(deliveryStatus); status != carriers.StatusUnknown {
		return status
	}
	return mapStatus(strings.TrimRight(substatus, "0123456789"))
}

// Client talks to the TrackingMore aggregator API
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a TrackingMore client. An empty or placeholder key
// leaves the client unconfigured; Track then reports that as a result, not
// an error.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default API root.
// An empty baseURL falls back to the production API.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured reports whether a usable API key is present
func (c *Client) IsConfigured() bool {
	return c.apiKey != "" && c.apiKey != placeholderKey
}

type apiMeta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type detectResponse struct {
	Meta apiMeta `json:"meta"`
	Data []struct {
		CourierCode string `json:"courier_code"`
	} `json:"data"`
}

type createResponse struct {
	Meta apiMeta `json:"meta"`
}

type milestoneDate struct {
	DeliveryDate       string `json:"delivery_date"`
	PickupDate         string `json:"pickup_date"`
	OutForDeliveryDate string `json:"outfordelivery_date"`
}

type checkpoint struct {
	CheckpointDate             string `json:"checkpoint_date"`
	TrackingDetail             string `json:"tracking_detail"`
	Location                   string `json:"location"`
	CheckpointDeliveryStatus   string `json:"checkpoint_delivery_status"`
	CheckpointDeliverySubstat  string `json:"checkpoint_delivery_substatus"`
	CountryISO2                string `json:"country_iso2"`
	State                      string `json:"state"`
	City                       string `json:"city"`
	Zip                        string `json:"zip"`
}

type trackingData struct {
	ID                    string `json:"id"`
	TrackingNumber        string `json:"tracking_number"`
	CourierCode           string `json:"courier_code"`
	DeliveryStatus        string `json:"delivery_status"`
	OriginCountry         string `json:"origin_country"`
	OriginCity            string `json:"origin_city"`
	DestinationCountry    string `json:"destination_country"`
	DestinationCity       string `json:"destination_city"`
	LatestEvent           string `json:"latest_event"`
	LatestCheckpointTime  string `json:"latest_checkpoint_time"`
	ScheduledDeliveryDate string `json:"scheduled_delivery_date"`
	OriginInfo            struct {
		CourierCode   string         `json:"courier_code"`
		Weblink       string         `json:"weblink"`
		TrackInfo     []checkpoint   `json:"trackinfo"`
		MilestoneDate *milestoneDate `json:"milestone_date"`
	} `json:"origin_info"`
	DestinationInfo struct {
		TrackInfo []checkpoint `json:"trackinfo"`
	} `json:"destination_info"`
}

type getResponse struct {
	Meta apiMeta        `json:"meta"`
	Data []trackingData `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Tracking-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// DetectCourier asks TrackingMore to identify the courier for a number.
// Returns an empty string when detection fails; the aggregator's detection
// is broader than the local pattern catalog, so it is always tried first.
func (c *Client) DetectCourier(ctx context.Context, trackingNumber string) string {
	if c.apiKey == "" {
		return ""
	}

	var detected detectResponse
	status, err := c.do(ctx, "POST", "/couriers/detect",
		map[string]string{"tracking_number": trackingNumber}, &detected)
	if err != nil {
		log.Printf("WARN: TrackingMore detect error: %v", err)
		return ""
	}
	if status != http.StatusOK {
		log.Printf("WARN: TrackingMore detect API error: %d", status)
		return ""
	}

	if detected.Meta.Code == 200 && len(detected.Data) > 0 {
		return detected.Data[0].CourierCode
	}

	return ""
}

// failure builds an unsuccessful result for the aggregator path
func failure(courier, trackingNumber, statusMessage, errMessage string, status carriers.TrackingStatus) *carriers.Result {
	carrierID := courier
	carrierName := strings.ToUpper(courier)
	if carrierID == "" {
		carrierID = "unknown"
		carrierName = "Unknown"
	}

	return &carriers.Result{
		Carrier:        carrierID,
		CarrierName:    carrierName,
		TrackingNumber: trackingNumber,
		Status:         status,
		StatusMessage:  statusMessage,
		Events:         []carriers.TrackingEvent{},
		Error:          errMessage,
	}
}

// Track registers a number with TrackingMore and fetches its current state.
// A registration that already exists (meta code 4101) is not an error.
func (c *Client) Track(ctx context.Context, trackingNumber, courierCodeHint string) *carriers.Result {
	if !c.IsConfigured() {
		return failure("", trackingNumber,
			"TrackingMore API not configured",
			"TrackingMore API key not configured",
			carriers.StatusUnknown)
	}

	courier := c.DetectCourier(ctx, trackingNumber)
	if courier == "" {
		courier = courierCodeHint
	}
	if courier == "" {
		return failure("", trackingNumber,
			"Could not detect carrier",
			"Could not detect carrier for this tracking number",
			carriers.StatusUnknown)
	}

	var created createResponse
	_, err := c.do(ctx, "POST", "/trackings/create", map[string]string{
		"tracking_number": trackingNumber,
		"courier_code":    courier,
	}, &created)
	if err != nil {
		return failure(courier, trackingNumber, "Failed to fetch tracking", err.Error(), carriers.StatusUnknown)
	}
	if created.Meta.Code != 200 && created.Meta.Code != 4101 {
		log.Printf("WARN: TrackingMore create error: %d %s", created.Meta.Code, created.Meta.Message)
	}

	getPath := "/trackings/get?tracking_numbers=" + url.QueryEscape(trackingNumber) + "&courier_code=" + url.QueryEscape(courier)

	var fetched getResponse
	status, err := c.do(ctx, "GET", getPath, nil, &fetched)
	if err != nil {
		return failure(courier, trackingNumber, "Failed to fetch tracking", err.Error(), carriers.StatusUnknown)
	}
	if status != http.StatusOK {
		return failure(courier, trackingNumber,
			fmt.Sprintf("API error: %d", status),
			fmt.Sprintf("TrackingMore API error: %d", status),
			carriers.StatusUnknown)
	}

	if fetched.Meta.Code != 200 || len(fetched.Data) == 0 {
		return failure(courier, trackingNumber,
			"Tracking created, awaiting updates",
			"No tracking data available yet - check back later",
			carriers.StatusPending)
	}

	return normalize(&fetched.Data[0])
}

// parseTime handles the timestamp shapes TrackingMore emits
func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}

// joinPlace joins non-empty place parts with commas
func joinPlace(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}

// normalize converts a TrackingMore record into the canonical result shape.
// Origin and destination checkpoints are merged and sorted newest first.
func normalize(tracking *trackingData) *carriers.Result {
	status := mapStatus(tracking.DeliveryStatus)

	checkpoints := make([]checkpoint, 0, len(tracking.OriginInfo.TrackInfo)+len(tracking.DestinationInfo.TrackInfo))
	checkpoints = append(checkpoints, tracking.OriginInfo.TrackInfo...)
	checkpoints = append(checkpoints, tracking.DestinationInfo.TrackInfo...)

	events := make([]carriers.TrackingEvent, 0, len(checkpoints))
	for _, cp := range checkpoints {
		event := carriers.TrackingEvent{
			Timestamp:   parseTime(cp.CheckpointDate),
			Description: cp.TrackingDetail,
			Status:      mapCheckpointStatus(cp.CheckpointDeliveryStatus, cp.CheckpointDeliverySubstat),
		}

		location := joinPlace(cp.City, cp.State, cp.Zip)
		if location == "" {
			location = cp.Location
		}
		if location != "" {
			event.Location = &location
		}

		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Timestamp, events[j].Timestamp
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	result := &carriers.Result{
		Success:        len(events) > 0,
		Carrier:        tracking.CourierCode,
		CarrierName:    strings.ToUpper(tracking.CourierCode),
		TrackingNumber: tracking.TrackingNumber,
		Status:         status,
		ETA:            parseTime(tracking.ScheduledDeliveryDate),
		Events:         events,
	}

	if tracking.OriginInfo.Weblink != "" {
		result.CarrierTrackingURL = tracking.OriginInfo.Weblink
	}

	if origin := joinPlace(tracking.OriginCity, tracking.OriginCountry); origin != "" {
		result.Origin = &origin
	}
	if destination := joinPlace(tracking.DestinationCity, tracking.DestinationCountry); destination != "" {
		result.Destination = &destination
	}

	switch {
	case tracking.LatestEvent != "":
		result.StatusMessage = tracking.LatestEvent
	case len(events) > 0:
		result.StatusMessage = events[0].Description
	default:
		result.StatusMessage = "No status available"
	}

	if len(events) > 0 {
		result.CurrentLocation = events[0].Location
	}

	if status == carriers.StatusDelivered {
		if tracking.OriginInfo.MilestoneDate != nil {
			result.DeliveredAt = parseTime(tracking.OriginInfo.MilestoneDate.DeliveryDate)
		}
		if result.DeliveredAt == nil && len(events) > 0 {
			result.DeliveredAt = events[0].Timestamp
		}
	}

	return result
}
