package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/magicformula/internal/api/handlers"
	"github.com/wonny/magicformula/pkg/logger"
)

// Handlers groups the endpoint handlers served by the router
type Handlers struct {
	Screener    *handlers.ScreenerHandler
	Backtest    *handlers.BacktestHandler
	MarketTable *handlers.MarketTableHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: routes are declared only in this function
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Screener
	api.HandleFunc("/screener", h.Screener.Get).Methods("GET")
	api.HandleFunc("/screener/refresh", h.Screener.Refresh).Methods("POST")

	// Backtest
	api.HandleFunc("/backtest", h.Backtest.Run).Methods("POST")
	api.HandleFunc("/backtest/stream", h.Backtest.Stream).Methods("GET")

	// Reference data
	api.HandleFunc("/market-table", h.MarketTable.Get).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "magicformula-api",
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer (WebSocket hijack)
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// WebSocket upgrades need the raw writer for Hijack
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				log.WithFields(map[string]interface{}{
					"method":   r.Method,
					"path":     r.URL.Path,
					"duration": time.Since(start),
				}).Debug("WebSocket session closed")
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
