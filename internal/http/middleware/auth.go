package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// AdminAuth is a simple bearer token middleware for write endpoints
type AdminAuth struct {
	adminAPIKey string
	logger      *slog.Logger
}

// NewAdminAuth creates a new admin authentication middleware. An empty key
// leaves the endpoints unprotected.
func NewAdminAuth(adminAPIKey string, logger *slog.Logger) *AdminAuth {
	if adminAPIKey == "" {
		logger.Warn("ADMIN_API_KEY not set - write endpoints will be unprotected!")
	}

	return &AdminAuth{
		adminAPIKey: adminAPIKey,
		logger:      logger,
	}
}

// Middleware returns the authentication middleware handler
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Development mode
		if a.adminAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			a.logger.Warn("Admin request rejected - no authorization header",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - missing Authorization header", http.StatusUnauthorized)
			return
		}

		// Expect format: "Bearer <api_key>"
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(a.adminAPIKey)) != 1 {
			a.logger.Warn("Admin request rejected - invalid API key",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HandlerFunc wraps a handler function with authentication
func (a *AdminAuth) HandlerFunc(next http.HandlerFunc) http.Handler {
	return a.Middleware(next)
}
