package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildSpansInheritTrace(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "ingest", "req-1")
	_, child := StartSpan(ctx, "count.update", "ignored")
	child.SetAttr("new_words", 3)
	child.End()
	root.End()

	assert.Equal(t, "req-1", child.TraceID)
	require.Len(t, root.Children, 1)
	assert.Same(t, root, SpanFromContext(ctx))
	assert.Nil(t, SpanFromContext(context.Background()))
}

func TestLogWritesTree(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "ingest", "req-2")
	_, child := StartSpan(ctx, "weight.update", "")
	child.End()
	root.End()
	root.Log(ctx, logger, slog.LevelDebug)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "msg=span"))
	assert.Contains(t, out, "span=weight.update")
	assert.Contains(t, out, "depth=1")

	buf.Reset()
	root.Log(ctx, slog.New(slog.NewTextHandler(&buf, nil)), slog.LevelDebug)
	assert.Empty(t, buf.String())
}
