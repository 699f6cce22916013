package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"parcel-tracking/internal/parser"
)

// ParseHandler extracts tracking numbers from free text
type ParseHandler struct {
	extractor *parser.Extractor
}

// NewParseHandler creates a new parse handler
func NewParseHandler(extractor *parser.Extractor) *ParseHandler {
	return &ParseHandler{extractor: extractor}
}

// ParseRequest is the request body for POST /api/parse
type ParseRequest struct {
	Content string `json:"content"`
}

// Parse handles POST /api/parse
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Content is required")
		return
	}

	writeJSON(w, http.StatusOK, h.extractor.Extract(req.Content))
}
