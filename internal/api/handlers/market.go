package handlers

import (
	"net/http"

	"github.com/wonny/magicformula/internal/markettable"
	"github.com/wonny/magicformula/pkg/logger"
)

// MarketTableHandler serves the per-year constants used by the backtest
type MarketTableHandler struct {
	table  *markettable.Table
	logger *logger.Logger
}

// NewMarketTableHandler creates a new market table handler
func NewMarketTableHandler(table *markettable.Table, log *logger.Logger) *MarketTableHandler {
	return &MarketTableHandler{
		table:  table,
		logger: log,
	}
}

// MarketTableResponse is the table with its content hash
type MarketTableResponse struct {
	Hash  string             `json:"hash"`
	Table *markettable.Table `json:"table"`
}

// Get returns the active market table
// GET /api/market-table
func (h *MarketTableHandler) Get(w http.ResponseWriter, r *http.Request) {
	hash, err := markettable.Hash(h.table)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash market table")
		respondError(w, http.StatusInternalServerError, "Failed to encode market table")
		return
	}

	respondJSON(w, http.StatusOK, MarketTableResponse{Hash: hash, Table: h.table})
}
