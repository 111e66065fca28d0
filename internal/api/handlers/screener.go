package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/internal/screener"
	"github.com/wonny/magicformula/pkg/logger"
)

// ScreenerHandler handles screener API endpoints
// ⭐ SSOT: screener API handlers live only in this struct
type ScreenerHandler struct {
	service *screener.Service
	logger  *logger.Logger
}

// NewScreenerHandler creates a new screener handler
func NewScreenerHandler(service *screener.Service, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		service: service,
		logger:  log,
	}
}

// ScreenerResponse is a screener result limited to the requested top entries
type ScreenerResponse struct {
	*contracts.ScreenerResult
	Total int `json:"total"`
}

// Get returns the latest screener result, running the screener when none exists
// GET /api/screener?top=N
func (h *ScreenerHandler) Get(w http.ResponseWriter, r *http.Request) {
	top, ok := parseTop(w, r)
	if !ok {
		return
	}

	result, err := h.service.LatestOrRun(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Screener run failed")
		respondError(w, http.StatusInternalServerError, "Failed to run screener")
		return
	}

	respondJSON(w, http.StatusOK, limit(result, top))
}

// Refresh reruns the screener
// POST /api/screener/refresh?top=N
func (h *ScreenerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	top, ok := parseTop(w, r)
	if !ok {
		return
	}

	result, err := h.service.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Screener refresh failed")
		respondError(w, http.StatusInternalServerError, "Failed to refresh screener")
		return
	}

	respondJSON(w, http.StatusOK, limit(result, top))
}

func parseTop(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return 0, true
	}

	top, err := strconv.Atoi(raw)
	if err != nil || top < 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'top' (expected a non-negative integer)")
		return 0, false
	}
	return top, true
}

func limit(result *contracts.ScreenerResult, top int) ScreenerResponse {
	out := *result
	out.Ranked = result.Top(top)
	return ScreenerResponse{ScreenerResult: &out, Total: len(result.Ranked)}
}
