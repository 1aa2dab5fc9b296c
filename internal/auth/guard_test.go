package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/auth/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
)

func serve(h http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardWithKeys(t *testing.T) {
	v, err := apikey.NewValidator(config.AuthConfig{
		RateLimit: 2,
		APIKeys:   []config.APIKeyConfig{{Name: "loader", Hash: apikey.HashKey("secret")}},
	})
	require.NoError(t, err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = KeyInfo(r.Context()).Name
		w.WriteHeader(http.StatusOK)
	})
	h := Guard(v, ratelimit.New(time.Minute), 0)(next)

	assert.Equal(t, http.StatusUnauthorized, serve(h, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "X-API-Key", "wrong").Code)

	assert.Equal(t, http.StatusOK, serve(h, "X-API-Key", "secret").Code)
	assert.Equal(t, "loader", seen)
	assert.Equal(t, http.StatusOK, serve(h, "Authorization", "Bearer secret").Code)

	rec := serve(h, "X-API-Key", "secret")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "31", rec.Header().Get("Retry-After"))
}

func TestGuardAnonymous(t *testing.T) {
	v, err := apikey.NewValidator(config.AuthConfig{})
	require.NoError(t, err)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, KeyInfo(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	h := Guard(v, ratelimit.New(time.Minute), 1)(ok)
	assert.Equal(t, http.StatusOK, serve(h, "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "", "").Code)

	unlimited := Guard(v, nil, 1)(ok)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(unlimited, "", "").Code)
	}
}
