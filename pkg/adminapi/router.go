// Package adminapi exposes a small chi-routed HTTP surface for
// operating a running cephctl process: liveness, Prometheus metrics,
// and the live state of pooled connections. Grounded on the teacher's
// pkg/controlplane/api.NewRouter: a chi.Router with a standard
// middleware stack, health routes left unauthenticated, everything
// else behind JWTAuth.
package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/cephmsgr/internal/logger"
	"github.com/marmos91/cephmsgr/pkg/metrics"
)

// Config configures the admin API router.
type Config struct {
	// JWTSecret signs and verifies bearer tokens for /status. Must be
	// at least 32 characters; an empty secret disables auth entirely
	// (intended for local development only).
	JWTSecret string
}

// NewRouter builds the admin API's http.Handler.
//
// Routes:
//   - GET /healthz - liveness probe, unauthenticated
//   - GET /metrics - Prometheus scrape endpoint, unauthenticated
//   - GET /status  - pooled connection states, bearer-token gated
func NewRouter(cfg Config, pool StatusProvider) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if handler := metrics.Handler(); handler != nil {
		r.Get("/metrics", handler.ServeHTTP)
	}

	statusHandler := func(w http.ResponseWriter, r *http.Request) {
		var statuses []ConnectionStatus
		if pool != nil {
			statuses = pool.Statuses()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statuses)
	}

	if cfg.JWTSecret == "" {
		r.Get("/status", statusHandler)
	} else {
		r.Group(func(r chi.Router) {
			r.Use(JWTAuth(cfg.JWTSecret))
			r.Get("/status", statusHandler)
		})
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("admin API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logger.Info("admin API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
