package requestlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteWriter_Write(t *testing.T) {
	ctx := context.Background()
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "requests.db"))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	err = w.Write(ctx, Entry{
		TraceID:    "abc123",
		Operation:  "current_weather",
		City:       "London",
		Provider:   "openweather",
		CacheHit:   false,
		DurationMs: 42,
	})
	require.NoError(t, err)

	err = w.Write(ctx, Entry{
		TraceID:      "def456",
		Operation:    "weather_forecast",
		City:         "Tokyo",
		Provider:     "openweather",
		CacheHit:     true,
		DurationMs:   1,
		ErrorMessage: "",
		CreatedAt:    time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, w.db.QueryRow(`SELECT COUNT(*) FROM request_logs`).Scan(&count))
	assert.Equal(t, 2, count)

	var op, city string
	var cacheHit bool
	row := w.db.QueryRow(`SELECT operation, city, cache_hit FROM request_logs WHERE trace_id = ?`, "def456")
	require.NoError(t, row.Scan(&op, &city, &cacheHit))
	assert.Equal(t, "weather_forecast", op)
	assert.Equal(t, "Tokyo", city)
	assert.True(t, cacheHit)
}

func TestSQLiteWriter_FillsCreatedAt(t *testing.T) {
	ctx := context.Background()
	w, err := NewSQLiteWriter(filepath.Join(t.TempDir(), "requests.db"))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, w.Write(ctx, Entry{Operation: "air_quality", City: "Paris"}))

	var created time.Time
	require.NoError(t, w.db.QueryRow(`SELECT created_at FROM request_logs`).Scan(&created))
	assert.WithinDuration(t, time.Now().UTC(), created, time.Minute)
}

func TestNoopWriter(t *testing.T) {
	assert.NoError(t, NoopWriter{}.Write(context.Background(), Entry{}))
}
