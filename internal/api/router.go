// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/middleware"
)

// NewRouter builds the HTTP routes for h. A nil mw serves without CORS
// headers or rate limiting.
func NewRouter(h *Handler, mw *middleware.ChiMiddleware) http.Handler {
	if mw == nil {
		mw = middleware.NewChiMiddleware(nil)
	}
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(requestLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(mw.CORS())

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.HealthReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(middleware.Compression)
		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})
		r.Get("/status", h.Status)
		r.Get("/series", h.Series)
	})

	return r
}

// requestLogging tags the request context with chi's request id as the
// correlation id and logs each request at debug level.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		if id := chimiddleware.GetReqID(ctx); id != "" {
			ctx = logging.ContextWithCorrelationID(ctx, id)
		} else {
			ctx = logging.ContextWithNewCorrelationID(ctx)
		}

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logging.Ctx(ctx).Debug().
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
