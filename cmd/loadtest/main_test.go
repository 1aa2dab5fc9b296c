package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(sorted, 50))
	assert.Equal(t, time.Duration(10), percentile(sorted, 99))
	assert.Equal(t, time.Duration(1), percentile(sorted, 0))
	assert.Zero(t, percentile(nil, 50))
}

func TestCorpusDeterministic(t *testing.T) {
	a := newCorpus(100, 7).document(20)
	b := newCorpus(100, 7).document(20)
	assert.Equal(t, a, b)
	assert.Len(t, strings.Fields(a), 20)
}

func TestPayloadShapes(t *testing.T) {
	c := newCorpus(50, 1)

	body, n := payload(c, Config{WordsPerDoc: 3, BatchSize: 1})
	assert.Equal(t, 1, n)
	var single map[string]string
	require.NoError(t, json.Unmarshal(body, &single))
	assert.Len(t, strings.Fields(single["document"]), 3)

	body, n = payload(c, Config{WordsPerDoc: 3, BatchSize: 4})
	assert.Equal(t, 4, n)
	var batch map[string][]string
	require.NoError(t, json.Unmarshal(body, &batch))
	assert.Len(t, batch["documents"], 4)
}

func TestRunAgainstStub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","new_words":{"term00001":3}}`))
	}))
	defer srv.Close()

	stats := run(Config{
		BaseURL:     srv.URL,
		APIKey:      "k",
		Concurrency: 2,
		Duration:    200 * time.Millisecond,
		Vocabulary:  100,
		WordsPerDoc: 5,
		BatchSize:   1,
	})
	require.Positive(t, stats.success.Load())
	assert.Equal(t, stats.success.Load(), stats.newWords.Load())

	var out bytes.Buffer
	assert.True(t, report(&out, stats, 200*time.Millisecond))
	assert.Contains(t, out.String(), "200:")
}
