package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"parcel-tracking/internal/carriers"
	"parcel-tracking/internal/handlers"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient(server.URL)
}

func TestHealthCheck(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(handlers.HealthResponse{Status: "healthy", Database: "ok"})
	})

	if err := client.HealthCheck(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestTrack(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/track" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var req TrackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.TrackingNumber != "1Z999AA10123456784" {
			t.Errorf("Unexpected tracking number: %s", req.TrackingNumber)
		}
		if !req.ForceRefresh {
			t.Error("Expected forceRefresh to be set")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(handlers.TrackResponse{
			Success:        true,
			Carrier:        "ups",
			CarrierName:    "UPS",
			TrackingNumber: req.TrackingNumber,
			Status:         carriers.StatusInTransit,
			Source:         carriers.SourceScraper,
		})
	})

	result, err := client.Track(&TrackRequest{
		TrackingNumber: "1Z999AA10123456784",
		ForceRefresh:   true,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Carrier != "ups" {
		t.Errorf("Expected carrier ups, got %s", result.Carrier)
	}
	if result.Status != carriers.StatusInTransit {
		t.Errorf("Expected status in_transit, got %s", result.Status)
	}
}

func TestTrackAPIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(handlers.ErrorResponse{Error: "Tracking number is required"})
	})

	_, err := client.Track(&TrackRequest{TrackingNumber: ""})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.Code != http.StatusBadRequest {
		t.Errorf("Expected code 400, got %d", apiErr.Code)
	}
	if apiErr.Message != "Tracking number is required" {
		t.Errorf("Unexpected message: %s", apiErr.Message)
	}
}

func TestTrackAPIErrorWithoutBody(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Track(&TrackRequest{TrackingNumber: "1Z999AA10123456784"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.Code != http.StatusInternalServerError {
		t.Errorf("Expected code 500, got %d", apiErr.Code)
	}
}

func TestGetCarriers(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/carriers" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]handlers.CarrierInfo{
			{ID: "ups", Name: "UPS"},
			{ID: "fedex", Name: "FedEx"},
		})
	})

	infos, err := client.GetCarriers()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("Expected 2 carriers, got %d", len(infos))
	}
	if infos[0].ID != "ups" {
		t.Errorf("Expected first carrier ups, got %s", infos[0].ID)
	}
}

func TestParse(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/parse" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		var req handlers.ParseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trackingNumbers": [{"number": "1Z999AA10123456784", "carrier": "ups"}], "merchantName": null, "orderNumber": null, "itemDescription": null, "rawContent": ""}`))
	})

	extraction, err := client.Parse("Tracking: 1Z999AA10123456784")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(extraction.TrackingNumbers) != 1 {
		t.Fatalf("Expected 1 tracking number, got %d", len(extraction.TrackingNumbers))
	}
	if extraction.TrackingNumbers[0].Carrier != "ups" {
		t.Errorf("Expected carrier ups, got %s", extraction.TrackingNumbers[0].Carrier)
	}
}
