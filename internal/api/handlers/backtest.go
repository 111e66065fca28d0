package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/magicformula/internal/backtest"
	"github.com/wonny/magicformula/internal/contracts"
	"github.com/wonny/magicformula/pkg/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BacktestHandler handles backtest API endpoints
type BacktestHandler struct {
	engine *backtest.Engine
	logger *logger.Logger
}

// NewBacktestHandler creates a new backtest handler
func NewBacktestHandler(engine *backtest.Engine, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		engine: engine,
		logger: log,
	}
}

// BacktestRequest represents a backtest request. Years wins over Period;
// omitted fields take the form defaults.
type BacktestRequest struct {
	Period              string   `json:"period"`
	Years               []int    `json:"years"`
	PortfolioSize       int      `json:"portfolio_size"`
	InitialInvestment   *float64 `json:"initial_investment"`
	MonthlyContribution *float64 `json:"monthly_contribution"`
}

// Config resolves the request into a backtest configuration
func (req BacktestRequest) Config() (contracts.BacktestConfig, error) {
	cfg := contracts.BacktestConfig{
		Years:               req.Years,
		PortfolioSize:       req.PortfolioSize,
		InitialInvestment:   backtest.DefaultInitialInvestment,
		MonthlyContribution: backtest.DefaultMonthlyContribution,
	}

	if len(cfg.Years) == 0 {
		period := req.Period
		if period == "" {
			period = backtest.DefaultPeriod
		}
		years, err := backtest.PeriodYears(period)
		if err != nil {
			return cfg, err
		}
		cfg.Years = years
	}
	if cfg.PortfolioSize == 0 {
		cfg.PortfolioSize = backtest.DefaultPortfolioSize
	}
	if req.InitialInvestment != nil {
		cfg.InitialInvestment = *req.InitialInvestment
	}
	if req.MonthlyContribution != nil {
		cfg.MonthlyContribution = *req.MonthlyContribution
	}

	return cfg, cfg.Validate()
}

// Run executes a backtest
// POST /api/backtest
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := req.Config()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.Run(r.Context(), cfg)
	if err != nil {
		h.respondRunError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// StreamEvent is one WebSocket message of a streamed backtest
type StreamEvent struct {
	Type       string                    `json:"type"` // progress, result, error
	Done       int                       `json:"done,omitempty"`
	Total      int                       `json:"total,omitempty"`
	Year       int                       `json:"year,omitempty"`
	ReturnPct  float64                   `json:"return_pct,omitempty"`
	DataSource string                    `json:"data_source,omitempty"`
	Result     *contracts.BacktestResult `json:"result,omitempty"`
	Message    string                    `json:"message,omitempty"`
}

// Stream runs a backtest over a WebSocket, sending one progress event per
// year and the result last. Closing the socket cancels the run.
// GET /api/backtest/stream?period=5years&size=10&initial=10000&monthly=500
func (h *BacktestHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, err := streamRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the reader only watches for the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev StreamEvent) {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.WithError(err).Debug("WebSocket write failed")
			cancel()
		}
	}

	cfg, err := req.Config()
	if err != nil {
		send(StreamEvent{Type: "error", Message: err.Error()})
		return
	}

	result, err := h.engine.RunWithProgress(ctx, cfg, func(done, total int, a *contracts.YearAnalysis) {
		send(StreamEvent{
			Type:       "progress",
			Done:       done,
			Total:      total,
			Year:       a.Year,
			ReturnPct:  a.EstimatedReturnPct,
			DataSource: a.DataSource,
		})
	})
	if err != nil {
		send(StreamEvent{Type: "error", Message: err.Error()})
		return
	}

	send(StreamEvent{Type: "result", Result: result})
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

func (h *BacktestHandler) respondRunError(w http.ResponseWriter, err error) {
	var vErr *contracts.ValidationError
	if errors.As(err, &vErr) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithError(err).Error("Backtest failed")
	respondError(w, http.StatusInternalServerError, "Failed to run backtest")
}

// streamRequest reads a BacktestRequest from query parameters
func streamRequest(r *http.Request) (BacktestRequest, error) {
	q := r.URL.Query()
	req := BacktestRequest{Period: q.Get("period")}

	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return req, &contracts.ValidationError{Field: "size", Message: "must be an integer"}
		}
		req.PortfolioSize = size
	}

	for key, dst := range map[string]**float64{
		"initial": &req.InitialInvestment,
		"monthly": &req.MonthlyContribution,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, &contracts.ValidationError{Field: key, Message: "must be a number"}
		}
		*dst = &v
	}

	return req, nil
}
