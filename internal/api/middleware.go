// backupd - Multi-Tenant Database Backup Orchestrator
// Copyright 2026 The backupd Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dilux/backupd/internal/auth"
	"github.com/dilux/backupd/internal/domain"
	"github.com/dilux/backupd/internal/logging"
	"github.com/dilux/backupd/internal/metrics"
)

type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyClaims    contextKey = "claims"
)

// requestIDWithLogging stamps every request with an id (reusing chi's
// RequestID generator) and stores it in context for respondError's
// 500-path correlation id and for structured access logging.
func requestIDWithLogging(next http.Handler) http.Handler {
	wrapped := chimiddleware.RequestID(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chimiddleware.GetReqID(r.Context())
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		wrapped.ServeHTTP(ww, r.WithContext(ctx))

		logging.Info().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func requestIDFromRequest(r *http.Request) string {
	if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// metricsMiddleware records every request's duration and in-flight count
// against the C8 Prometheus metric families.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := chimiddleware.GetReqID(r.Context())
		_ = endpoint
		metrics.RecordAPIRequest(r.Method, r.URL.Path, http.StatusText(ww.Status()), time.Since(start))
	})
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// authenticate validates the bearer token on every route it wraps,
// rejecting the request with 401 if absent or invalid. The validated
// claims are stashed in context for handlers that need the caller's role
// (e.g. restricting user-management routes to admins).
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, r, domain.NewValidationError("missing bearer token"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := s.jwt.ValidateToken(token)
		if err != nil {
			respondError(w, r, domain.NewCredentialError("invalid or expired token", err))
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromRequest(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(ctxKeyClaims).(*auth.Claims)
	return claims
}

// requireAdmin rejects any caller whose token role isn't admin. Applied
// after authenticate on the user-management routes.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromRequest(r)
		if claims == nil || claims.Role != string(domain.RoleAdmin) {
			respondError(w, r, domain.NewPolicyViolation("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
