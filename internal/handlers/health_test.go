package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"parcel-tracking/internal/database"
)

func TestHealthCheck(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	handler := NewHealthHandler(db)

	req := httptest.NewRequest("GET", "/api/health", nil)
	recorder := httptest.NewRecorder()
	handler.HealthCheck(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", response.Status)
	}
	if response.Database != "ok" {
		t.Errorf("Expected database ok, got %s", response.Database)
	}
}

func TestHealthCheckNoDatabase(t *testing.T) {
	handler := NewHealthHandler(nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	recorder := httptest.NewRecorder()
	handler.HealthCheck(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Database != "disabled" {
		t.Errorf("Expected database disabled, got %s", response.Database)
	}
}
