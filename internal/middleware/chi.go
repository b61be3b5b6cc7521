// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/chatstats/internal/config"
)

// ChiMiddleware builds CORS and rate limiting middleware from server config.
type ChiMiddleware struct {
	cfg  *config.ServerConfig
	cors func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory. A nil cfg disables CORS
// and rate limiting.
func NewChiMiddleware(cfg *config.ServerConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = &config.ServerConfig{RateLimitDisabled: true}
	}

	m := &ChiMiddleware{cfg: cfg, cors: passthrough}
	// Without configured origins no CORS headers are sent at all.
	if len(cfg.CORSOrigins) > 0 {
		m.cors = cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
			ExposedHeaders:   []string{"ETag", "X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           86400,
		})
	}
	return m
}

// CORS returns the CORS middleware.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits requests per client IP. Behind a proxy, run it after
// chi's RealIP middleware so the forwarded address is used.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled || m.cfg.RateLimitRequests <= 0 {
		return passthrough
	}
	return httprate.Limit(
		m.cfg.RateLimitRequests,
		m.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":"error","error":{"code":"RATE_LIMITED","message":"too many requests"}}`))
		}),
	)
}

func passthrough(next http.Handler) http.Handler {
	return next
}
