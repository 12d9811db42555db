package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"rentwheels-backend/internal/logger"
	"rentwheels-backend/internal/security"
)

type principalKey struct{}

// PrincipalFromContext returns the authenticated principal stored by the auth
// middleware. The bool is false only for routes that skipped the middleware.
func PrincipalFromContext(ctx context.Context) (*security.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*security.Principal)
	return p, ok
}

// AuthMiddleware validates the bearer token and injects the resolved
// principal into the request context. Requests without a valid token never
// reach the handler.
func AuthMiddleware(tm security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractToken(r)
			if err != nil {
				writeErrorMessage(w, http.StatusUnauthorized, err.Error())
				return
			}

			principal, err := tm.ValidateToken(token)
			if err != nil {
				writeErrorMessage(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	// Remove Bearer prefix if present
	if len(authHeader) > 7 && strings.ToUpper(authHeader[0:7]) == "BEARER " {
		return authHeader[7:], nil
	}
	return authHeader, nil
}

// LoggingMiddleware logs each request with method, path, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
