package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"parcel-tracking/internal/parser"
)

func postParse(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewParseHandler(parser.NewExtractor())
	req := httptest.NewRequest("POST", "/api/parse", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	handler.Parse(recorder, req)
	return recorder
}

func TestParse(t *testing.T) {
	body := `{"content": "Your order from Amazon. Tracking number: 1Z999AA10123456784"}`
	recorder := postParse(t, body)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}

	var extraction parser.Extraction
	if err := json.Unmarshal(recorder.Body.Bytes(), &extraction); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(extraction.TrackingNumbers) != 1 {
		t.Fatalf("Expected 1 tracking number, got %d", len(extraction.TrackingNumbers))
	}
	if extraction.TrackingNumbers[0].Number != "1Z999AA10123456784" {
		t.Errorf("Unexpected number: %s", extraction.TrackingNumbers[0].Number)
	}
	if extraction.TrackingNumbers[0].Carrier != "ups" {
		t.Errorf("Expected carrier ups, got %s", extraction.TrackingNumbers[0].Carrier)
	}
	if extraction.MerchantName == nil || *extraction.MerchantName != "Amazon" {
		t.Errorf("Expected merchant Amazon, got %v", extraction.MerchantName)
	}
}

func TestParseMissingContent(t *testing.T) {
	recorder := postParse(t, `{"content": ""}`)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", recorder.Code)
	}
}

func TestParseInvalidBody(t *testing.T) {
	recorder := postParse(t, `not json`)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", recorder.Code)
	}
}
