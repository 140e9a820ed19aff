// Package handler contains the thin HTTP surface over the routing core.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/z123guitar/interline/internal/placenorm"
	"github.com/z123guitar/interline/internal/repository"
	"github.com/z123guitar/interline/internal/service"
)

// SearchRequest is the JSON body for POST /api/v1/search.
type SearchRequest struct {
	OriginSpecRaw string `json:"origin_spec_raw"`
	DestSpecRaw   string `json:"dest_spec_raw"`
	MaxExpansions int    `json:"max_expansions,omitempty"`
	TimeoutMs     int    `json:"timeout_ms,omitempty"`
}

// SearchHandler handles door-to-door route search HTTP requests.
type SearchHandler struct {
	routing *service.RoutingService
}

// NewSearchHandler creates a new handler wired to the routing service.
func NewSearchHandler(routing *service.RoutingService) *SearchHandler {
	return &SearchHandler{routing: routing}
}

// Search handles POST /api/v1/search.
//
// Request body:
//
//	{"origin_spec_raw": "address:123 Main St", "dest_spec_raw": "hotel near Back Bay"}
//
// Response: the ItineraryBundle JSON, whatever its search_status.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
		return
	}

	if req.OriginSpecRaw == "" || req.DestSpecRaw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "origin_spec_raw and dest_spec_raw are both required",
		})
		return
	}

	bundle, err := h.routing.Search(r.Context(), req.OriginSpecRaw, req.DestSpecRaw, req.MaxExpansions, req.TimeoutMs)
	if err != nil {
		var normErr *placenorm.NormalizationError
		var persistErr *repository.PersistenceError
		switch {
		case errors.As(err, &normErr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":   "normalization_failed",
				"message": normErr.Error(),
			})
		case errors.As(err, &persistErr):
			log.Printf("[handler] search persistence error: %v", persistErr)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":   "persistence_unavailable",
				"message": "the routing graph could not be loaded",
			})
		default:
			log.Printf("[handler] search error: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "internal_error",
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
