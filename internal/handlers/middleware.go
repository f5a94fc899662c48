package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"wordbuilder/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const AdminContextKey ContextKey = "admin"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens       *security.TokenService
	loginLimiter *security.RateLimiter
	log          *zap.Logger
}

func NewMiddleware(tokens *security.TokenService, log *zap.Logger) *Middleware {
	return &Middleware{
		tokens:       tokens,
		loginLimiter: security.NewRateLimiter(5, time.Minute),
		log:          log,
	}
}

// LimitLogin throttles login attempts per client IP.
func (m *Middleware) LimitLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.loginLimiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, m.log, http.StatusTooManyRequests, "too many login attempts", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests that do not carry a valid bearer token.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondWithError(w, m.log, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}

		subject, err := m.tokens.Verify(token)
		if err != nil {
			respondWithError(w, m.log, http.StatusUnauthorized, "invalid token", err)
			return
		}

		ctx := context.WithValue(r.Context(), AdminContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs each request with its status and duration.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// AdminFromContext retrieves the authenticated admin subject, if any.
func AdminFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(AdminContextKey).(string)
	return subject
}
