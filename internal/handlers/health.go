package handlers

import (
	"net/http"

	"parcel-tracking/internal/database"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler. The database is optional;
// when the server runs without persistence the check reports "disabled".
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
}

// HealthCheck handles GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:   "healthy",
		Database: "ok",
	}

	if h.db == nil {
		response.Database = "disabled"
		writeJSON(w, http.StatusOK, response)
		return
	}

	if err := h.db.IsHealthy(); err != nil {
		response.Status = "unhealthy"
		response.Database = "error"
		response.Message = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
