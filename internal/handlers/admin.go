package handlers

import (
	"log/slog"
	"net/http"

	"parcel-tracking/internal/cache"
)

// AdminHandler handles administrative cache operations
type AdminHandler struct {
	cache  *cache.Manager
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cacheManager *cache.Manager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		cache:  cacheManager,
		logger: logger,
	}
}

// GetCacheStats handles GET /api/admin/cache/stats
func (h *AdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.GetStats())
}

// ClearCache handles DELETE /api/admin/cache
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	h.logger.Info("Cache cleared via admin API")

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Cache has been cleared",
	})
}

// CleanExpiredResponse reports how many entries a clean pass removed
type CleanExpiredResponse struct {
	Status  string `json:"status"`
	Removed int    `json:"removed"`
}

// CleanExpiredCache handles POST /api/admin/cache/cleanup
func (h *AdminHandler) CleanExpiredCache(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.CleanExpired()
	h.logger.Info("Expired cache entries cleaned via admin API", "removed", removed)

	writeJSON(w, http.StatusOK, CleanExpiredResponse{
		Status:  "ok",
		Removed: removed,
	})
}
