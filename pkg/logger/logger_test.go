package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterJSONCarriesCollection(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "debug", "json")
	WithCollection("count-accumulator", "countVectorRepresentation").Debug("flushed", "op", "insert")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "flushed", entry["msg"])
	assert.Equal(t, "count-accumulator", entry["component"])
	assert.Equal(t, "countVectorRepresentation", entry["collection"])
	assert.Equal(t, "insert", entry["op"])
}

func TestLevelFiltering(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "text")
	slog.Info("hidden")
	assert.Zero(t, buf.Len())
	slog.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContextAddsRequestID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "text")
	ctx := WithRequestID(context.Background(), "req-42")
	FromContext(ctx).Info("ingested")
	assert.Contains(t, buf.String(), "request_id=req-42")
}
