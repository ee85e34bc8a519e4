package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stockdash/internal/api/handlers"
	"github.com/wonny/stockdash/pkg/logger"
	"github.com/wonny/stockdash/pkg/metrics"
)

// Handlers groups the endpoint handlers; nil groups are not routed
type Handlers struct {
	Stock     *handlers.StockHandler
	Data      *handlers.DataHandler
	Watchlist *handlers.WatchlistHandler
	Sentiment *handlers.SentimentHandler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, m *metrics.Metrics, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	if h.Stock != nil {
		api.HandleFunc("/stocks/{ticker}", h.Stock.GetStock).Methods("GET")
		api.HandleFunc("/stocks/{ticker}/prices", h.Stock.GetPrices).Methods("GET")
		api.HandleFunc("/stocks/{ticker}/refresh", h.Stock.Refresh).Methods("POST")
	}
	if h.Data != nil {
		api.HandleFunc("/data/coverage", h.Data.GetCoverage).Methods("GET")
		api.HandleFunc("/data/jobs", h.Data.GetJobs).Methods("GET")
	}
	if h.Watchlist != nil {
		api.HandleFunc("/users/{user}/watchlist", h.Watchlist.List).Methods("GET")
		api.HandleFunc("/users/{user}/watchlist/{ticker}", h.Watchlist.Add).Methods("PUT")
		api.HandleFunc("/users/{user}/watchlist/{ticker}", h.Watchlist.Remove).Methods("DELETE")
	}
	if h.Sentiment != nil {
		api.HandleFunc("/sentiment", h.Sentiment.Analyze).Methods("POST")
	}

	r.Use(loggingMiddleware(log, m))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stockdash-api",
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and counts them by route template
func loggingMiddleware(log *logger.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			// 라벨 폭발 방지: 실제 경로 대신 라우트 템플릿
			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.IncHTTPRequest(r.Method, route, strconv.Itoa(rec.status))

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
