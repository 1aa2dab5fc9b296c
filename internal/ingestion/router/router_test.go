package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/service"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/store"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/vocabulary"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/metrics"
)

func newServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	tok := tokenizer.MustNew("")
	count, err := vocabulary.NewCountAccumulator(ctx, st, tok, vocabulary.Options{})
	require.NoError(t, err)
	weight, err := vocabulary.NewWeightAccumulator(ctx, st, tok, vocabulary.Options{})
	require.NoError(t, err)

	m := metrics.New(nil)
	checker := health.NewChecker()
	checker.Register("store", health.PingCheck(st, nil))
	h := handler.New(service.New(count, weight, nil, m), 1<<10)

	srv := httptest.NewServer(New(h, checker, m, config.ServerConfig{RequestTimeout: 5 * time.Second}, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIngestAndStats(t *testing.T) {
	srv := newServer(t, store.NewMemory())

	resp := postJSON(t, srv.URL+PathDocuments, `{"document":"the cat sat"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var ingest ingestion.IngestResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ingest))
	assert.Equal(t, ingestion.StatusOK, ingest.Status)
	assert.Equal(t, map[string]int{"the": 0, "cat": 1, "sat": 2}, ingest.NewWords)

	resp = postJSON(t, srv.URL+PathDocuments, `{"documents":["the dog ran","a cat"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statsResp, err := http.Get(srv.URL + PathStats)
	require.NoError(t, err)
	defer statsResp.Body.Close()
	var stats ingestion.Stats
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&stats))
	assert.Equal(t, 5, stats.CountWords)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, "persisted", stats.CountState)
}

func TestIngestErrors(t *testing.T) {
	srv := newServer(t, store.NewMemory())

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{name: "bad json", body: `{`, status: http.StatusBadRequest, want: "invalid JSON"},
		{name: "validation", body: `{}`, status: http.StatusBadRequest, want: "validation failed"},
		{name: "no words", body: `{"document":"! ? ."}`, status: http.StatusBadRequest, want: "tokenization"},
		{name: "too large", body: `{"document":"` + strings.Repeat("x", 2<<10) + `"}`, status: http.StatusRequestEntityTooLarge, want: "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+PathDocuments, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestWordsEndpoint(t *testing.T) {
	srv := newServer(t, store.NewMemory())
	postJSON(t, srv.URL+PathDocuments, `{"document":"cat cat dog eel"}`)

	resp, err := http.Get(srv.URL + PathWords + "?mode=count&limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Mode  string                `json:"mode"`
		Words []ingestion.WordEntry `json:"words"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "count", body.Mode)
	require.Len(t, body.Words, 2)
	assert.Equal(t, "cat", body.Words[0].Word)
	assert.Equal(t, "dog", body.Words[1].Word)

	bad, err := http.Get(srv.URL + PathWords + "?mode=tfidf")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHealth(t *testing.T) {
	st := store.NewMemory()
	srv := newServer(t, st)

	resp, err := http.Get(srv.URL + PathReady)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, st.Close())
	resp, err = http.Get(srv.URL + PathReady)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + PathLive)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWriteGuardCoversOnlyIngest(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	tok := tokenizer.MustNew("")
	count, err := vocabulary.NewCountAccumulator(ctx, st, tok, vocabulary.Options{})
	require.NoError(t, err)
	weight, err := vocabulary.NewWeightAccumulator(ctx, st, tok, vocabulary.Options{})
	require.NoError(t, err)
	h := handler.New(service.New(count, weight, nil, nil), 1<<10)

	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	srv := httptest.NewServer(New(h, health.NewChecker(), nil, config.ServerConfig{RequestTimeout: time.Second}, deny))
	defer srv.Close()

	resp := postJSON(t, srv.URL+PathDocuments, `{"document":"the cat"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	get, err := http.Get(srv.URL + PathStats)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
}
