package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", Format: "json", Output: &buf})

	ctx, id := EnsureRunID(context.Background())
	l.With(String("component", "engine")).Warn(ctx, "course ends near an earlier corner",
		Uint64("point_id", 7), Float64("misclosure_m", 0.25), Err(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "course ends near an earlier corner", rec["msg"])
	assert.Equal(t, "engine", rec["component"])
	assert.Equal(t, float64(7), rec["point_id"])
	assert.Equal(t, 0.25, rec["misclosure_m"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, id, rec["run_id"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info(context.Background(), "dropped")
	assert.Zero(t, buf.Len())
	l.Error(context.Background(), "kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestRunIDIsStable(t *testing.T) {
	ctx, id := EnsureRunID(context.Background())
	require.NotEmpty(t, id)
	ctx2, id2 := EnsureRunID(ctx)
	assert.Equal(t, id, id2)
	assert.Equal(t, id, RunIDFromContext(ctx2))
	assert.Empty(t, RunIDFromContext(context.Background()))
}

func TestContextLogger(t *testing.T) {
	assert.Equal(t, Noop(), FromContext(context.Background()))
	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	ctx := ContextWithLogger(context.Background(), l)
	FromContext(ctx).Info(ctx, "hello")
	assert.Contains(t, buf.String(), "hello")
}
