// Package auth guards the document write endpoint with API keys and
// per-client rate limits.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/ratelimit"
)

type contextKey struct{}

// Guard returns middleware that authenticates writers and applies rate
// limits. With no keys configured every caller is admitted and limited
// by remote address using anonLimit. limiter may be nil.
func Guard(validator *apikey.Validator, limiter *ratelimit.Limiter, anonLimit int) func(http.Handler) http.Handler {
	logger := slog.Default().With("component", "auth-guard")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey, limit := "addr:"+remoteHost(r), anonLimit

			if validator != nil && validator.Enabled() {
				key := extractAPIKey(r)
				if key == "" {
					writeError(w, http.StatusUnauthorized, "missing api key")
					return
				}
				info, err := validator.Validate(key)
				if err != nil {
					switch {
					case errors.Is(err, apikey.ErrExpiredKey):
						writeError(w, http.StatusUnauthorized, "expired api key")
					default:
						writeError(w, http.StatusUnauthorized, "invalid api key")
					}
					return
				}
				clientKey, limit = "key:"+info.Name, info.RateLimit
				r = r.WithContext(context.WithValue(r.Context(), contextKey{}, info))
			}

			if limiter != nil && !limiter.Allow(clientKey, limit) {
				retry := limiter.RetryAfter(limit).Seconds()
				w.Header().Set("Retry-After", strconv.Itoa(int(retry)+1))
				logger.Debug("rate limit exceeded", "client", clientKey)
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// KeyInfo returns the validated key of the request, if any.
func KeyInfo(ctx context.Context) *apikey.KeyInfo {
	info, _ := ctx.Value(contextKey{}).(*apikey.KeyInfo)
	return info
}

// extractAPIKey reads the API key from the request in priority order:
// Authorization: Bearer header, then X-API-Key header.
func extractAPIKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
