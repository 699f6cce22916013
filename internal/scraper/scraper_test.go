package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"parcel-tracking/internal/cache"
	"parcel-tracking/internal/carriers"
)

const upsStatePage = `<html><head><script>window.__INITIAL_STATE__ = {"tracking":{"events":[{"description":"Delivered","timestamp":"2024-01-03T10:15:00Z","location":"Front Door"},{"description":"Out for delivery","timestamp":"2024-01-03T08:00:00Z","location":"Local Facility"}],"estimatedDelivery":"2024-01-03T20:00:00Z"}};</script></head><body></body></html>`

const timelinePage = `<html><body>
<table class="tracking-history">
<tr><td>Jan 2, 2024 14:30</td><td>Memphis, TN</td><td>Departed sorting hub</td></tr>
<tr><td>Jan 1, 2024 09:00</td><td>Olive Branch, MS</td><td>Picked up</td></tr>
</table>
</body></html>`

const blockedPage = `<html><head><title>Just a moment...</title></head><body>Checking your browser before accessing. Cloudflare Ray ID</body></html>`

// overrideURL points a carrier's tracking URL at a test server
func overrideURL(s *Scraper, carrierID, serverURL string) {
	if s.urlTemplates == nil {
		s.urlTemplates = make(map[string]string)
	}
	s.urlTemplates[carrierID] = serverURL + "/?num={TRACKING_NUMBER}"
}

func TestScrapeEmbeddedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(upsStatePage))
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "ups", server.URL)

	result := s.Scrape(context.Background(), "1z999aa10123456784", "")

	if !result.Success {
		t.Fatalf("Scrape() success = false, error = %q", result.Error)
	}
	if result.Carrier != "ups" {
		t.Errorf("Carrier = %q, want ups", result.Carrier)
	}
	if result.TrackingNumber != "1Z999AA10123456784" {
		t.Errorf("TrackingNumber = %q, want normalized form", result.TrackingNumber)
	}
	if result.Status != carriers.StatusDelivered {
		t.Errorf("Status = %v, want %v", result.Status, carriers.StatusDelivered)
	}
	if result.StatusMessage != "Delivered" {
		t.Errorf("StatusMessage = %q, want Delivered", result.StatusMessage)
	}
	if len(result.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(result.Events))
	}
	if result.CurrentLocation == nil || *result.CurrentLocation != "Front Door" {
		t.Errorf("CurrentLocation = %v, want Front Door", result.CurrentLocation)
	}
	if result.ETA == nil {
		t.Error("ETA = nil, want parsed estimate")
	}
	if result.DeliveredAt == nil {
		t.Error("DeliveredAt = nil, want delivery timestamp")
	}
	if result.Cached {
		t.Error("Cached = true on first fetch")
	}
}

func TestScrapeJSONFallsBackToTimeline(t *testing.T) {
	// A json_embedded carrier whose page carries no state blob should still
	// parse via the HTML timeline.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timelinePage))
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "fedex", server.URL)

	result := s.Scrape(context.Background(), "123456789012", "")

	if !result.Success {
		t.Fatalf("Scrape() success = false, error = %q", result.Error)
	}
	if result.Carrier != "fedex" {
		t.Errorf("Carrier = %q, want fedex", result.Carrier)
	}
	if result.Status != carriers.StatusInTransit {
		t.Errorf("Status = %v, want %v", result.Status, carriers.StatusInTransit)
	}
	if len(result.Events) != 2 {
		t.Errorf("got %d events, want 2", len(result.Events))
	}
}

func TestScrapeBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(blockedPage))
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "ups", server.URL)

	result := s.Scrape(context.Background(), "1Z999AA10123456784", "")

	if result.Success {
		t.Error("Success = true for blocked page")
	}
	if !result.Blocked {
		t.Error("Blocked = false, want true")
	}
	if result.StatusMessage != "Carrier requires human verification" {
		t.Errorf("StatusMessage = %q", result.StatusMessage)
	}
	if result.Error == "" {
		t.Error("Error is empty, want bot-detection explanation")
	}
}

func TestScrapeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "ups", server.URL)

	result := s.Scrape(context.Background(), "1Z999AA10123456784", "")

	if result.Success {
		t.Error("Success = true for HTTP 503")
	}
	if result.Blocked {
		t.Error("Blocked = true for plain HTTP error")
	}
	if result.StatusMessage != "HTTP error 503" {
		t.Errorf("StatusMessage = %q, want HTTP error 503", result.StatusMessage)
	}
}

func TestScrapeAccepts2xx(t *testing.T) {
	// Any 2xx status carries a usable page, not just 200.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(timelinePage))
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "fedex", server.URL)

	result := s.Scrape(context.Background(), "123456789012", "")

	if !result.Success {
		t.Fatalf("Scrape() success = false for HTTP 202, error = %q", result.Error)
	}
	if len(result.Events) != 2 {
		t.Errorf("got %d events, want 2", len(result.Events))
	}
}

func TestScrapeUnknownCarrier(t *testing.T) {
	s := New(nil, Config{})

	result := s.Scrape(context.Background(), "???", "")

	if result.Success {
		t.Error("Success = true for undetectable number")
	}
	if result.Carrier != "unknown" {
		t.Errorf("Carrier = %q, want unknown", result.Carrier)
	}
	if result.CarrierName != "Unknown Carrier" {
		t.Errorf("CarrierName = %q, want Unknown Carrier", result.CarrierName)
	}
	if result.Error == "" {
		t.Error("Error is empty, want unknown-carrier explanation")
	}
	if result.Events == nil {
		t.Error("Events = nil, want empty slice")
	}
}

func TestScrapeEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>No results found</p></body></html>"))
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "ups", server.URL)

	result := s.Scrape(context.Background(), "1Z999AA10123456784", "")

	if result.Success {
		t.Error("Success = true for page with no events")
	}
	if result.StatusMessage != "No tracking information available" {
		t.Errorf("StatusMessage = %q", result.StatusMessage)
	}
}

func TestScrapeCacheHit(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte(upsStatePage))
	}))
	defer server.Close()

	manager := cache.NewManager(nil, false)
	defer manager.Close()

	s := New(manager, Config{})
	overrideURL(s, "ups", server.URL)

	first := s.Scrape(context.Background(), "1Z999AA10123456784", "")
	if !first.Success {
		t.Fatalf("first Scrape() failed: %q", first.Error)
	}
	if first.Cached {
		t.Error("first result marked cached")
	}

	second := s.Scrape(context.Background(), " 1z999aa10123456784 ", "")
	if !second.Success {
		t.Fatalf("second Scrape() failed: %q", second.Error)
	}
	if !second.Cached {
		t.Error("second result not marked cached")
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Errorf("carrier page fetched %d times, want 1", got)
	}
}

func TestScrapeFailureNotCached(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Write([]byte("<html><body>nothing</body></html>"))
	}))
	defer server.Close()

	manager := cache.NewManager(nil, false)
	defer manager.Close()

	s := New(manager, Config{})
	overrideURL(s, "ups", server.URL)

	s.Scrape(context.Background(), "1Z999AA10123456784", "")
	s.Scrape(context.Background(), "1Z999AA10123456784", "")

	if got := atomic.LoadInt64(&hits); got != 2 {
		t.Errorf("carrier page fetched %d times, want 2 (failures must not cache)", got)
	}
}

func TestScrapeCarrierHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timelinePage))
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "dpd", server.URL)

	// The number alone would detect as DHL; the hint forces DPD
	result := s.Scrape(context.Background(), "1234567890", "dpd")

	if result.Carrier != "dpd" {
		t.Errorf("Carrier = %q, want dpd", result.Carrier)
	}
	if !result.Success {
		t.Errorf("Scrape() success = false, error = %q", result.Error)
	}
}

func TestScrapeMultiple(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(upsStatePage))
	}))
	defer server.Close()

	s := New(nil, Config{})
	overrideURL(s, "ups", server.URL)

	results := s.ScrapeMultiple(context.Background(), []ScrapeRequest{
		{TrackingNumber: "1Z999AA10123456784"},
		{TrackingNumber: "???"},
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[0].Success {
		t.Errorf("results[0] failed: %q", results[0].Error)
	}
	if results[1].Success {
		t.Error("results[1] succeeded for undetectable number")
	}
}

func TestProbeAllFindsCarrier(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dpd/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timelinePage))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := New(nil, Config{})
	s.urlTemplates = make(map[string]string)
	for _, id := range carriers.AllIDs() {
		s.urlTemplates[id] = server.URL + "/" + id + "/?num={TRACKING_NUMBER}"
	}

	// A shape no pattern matches, so every carrier gets probed
	result := s.ProbeAll(context.Background(), "zz!9")

	if !result.Success {
		t.Fatalf("ProbeAll() failed: %q", result.Error)
	}
	if result.Carrier != "dpd" {
		t.Errorf("Carrier = %q, want dpd", result.Carrier)
	}
	if len(result.Events) != 2 {
		t.Errorf("got %d events, want 2", len(result.Events))
	}
}

func TestProbeAllNoWinner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := New(nil, Config{})
	s.urlTemplates = make(map[string]string)
	for _, id := range carriers.AllIDs() {
		s.urlTemplates[id] = server.URL + "/?num={TRACKING_NUMBER}"
	}

	result := s.ProbeAll(context.Background(), "zz!9")

	if result.Success {
		t.Error("ProbeAll() succeeded with no responsive carrier")
	}
	if result.Carrier != "unknown" {
		t.Errorf("Carrier = %q, want unknown", result.Carrier)
	}
	if result.Error != "No carrier returned tracking data for this number" {
		t.Errorf("Error = %q", result.Error)
	}
}

func TestProbeAllPrefersDetectedCarrier(t *testing.T) {
	var upsHits, otherHits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/ups/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&upsHits, 1)
		w.Write([]byte(upsStatePage))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&otherHits, 1)
		w.Write([]byte(timelinePage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := New(nil, Config{})
	s.urlTemplates = make(map[string]string)
	for _, id := range carriers.AllIDs() {
		s.urlTemplates[id] = server.URL + "/" + id + "/?num={TRACKING_NUMBER}"
	}

	result := s.ProbeAll(context.Background(), "1Z999AA10123456784")

	if result.Carrier != "ups" {
		t.Errorf("Carrier = %q, want ups", result.Carrier)
	}
	if got := atomic.LoadInt64(&upsHits); got != 1 {
		t.Errorf("UPS fetched %d times, want 1", got)
	}
	if got := atomic.LoadInt64(&otherHits); got != 0 {
		t.Errorf("other carriers probed %d times, want 0 when the detected carrier succeeds", got)
	}
}
