package api

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mediavaultapp/companion-server/internal/http/response"
)

type contextKey string

const deviceIDKey contextKey = "deviceID"

// deviceID returns the authenticated device id from the request context.
func deviceID(ctx context.Context) string {
	if id, ok := ctx.Value(deviceIDKey).(string); ok {
		return id
	}
	return ""
}

// requireDevice authenticates the request against the device registry.
// Credentials are accepted as "Authorization: Bearer <token>" on any method,
// or as a "token" query parameter on GET only so media URLs can be handed to
// players that cannot set headers. Revoked tokens fail immediately; there is
// no cached session to drain.
func (s *Server) requireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" && r.Method == http.MethodGet {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			response.Unauthorized(w, "Missing device token", s.logger)
			return
		}

		id, ok := s.services.Registry.ResolveToken(token)
		if !ok {
			response.Unauthorized(w, "Invalid device token", s.logger)
			return
		}

		s.services.Registry.Touch(id, time.Now().UTC())

		ctx := context.WithValue(r.Context(), deviceIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// pairingRateLimit throttles the public pairing endpoints per client IP to
// blunt code guessing.
func (s *Server) pairingRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}
		if !s.pairLimit.Allow(key) {
			response.TooManyRequests(w, "Too many pairing attempts, slow down", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
