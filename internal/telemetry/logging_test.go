package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var record map[string]any
		require.NoError(t, dec.Decode(&record))
		records = append(records, record)
	}
	return records
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
}

func TestNewLoggerTraceContext(t *testing.T) {
	recordSpans(t)

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("component", "checkout").WithGroup("order")

	ctx, span := StartSpan(context.Background(), "checkout")
	logger.InfoContext(ctx, "order created", "id", 7)
	span.End()

	logger.Info("no span", "id", 8)

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)

	traceID, spanID := SpanIDs(ctx)
	assert.Equal(t, traceID, records[0]["trace_id"])
	assert.Equal(t, spanID, records[0]["span_id"])
	assert.Equal(t, "checkout", records[0]["component"])
	assert.Equal(t, map[string]any{"id": float64(7)}, records[0]["order"])

	assert.NotContains(t, records[1], "trace_id")
	assert.NotContains(t, records[1], "span_id")
}

func TestNewLoggerRedactsCardData(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("payment submitted",
		"card_number", "4111111111111111",
		"cvv", "123",
		slog.Group("card", "code", "999"),
		"order_id", 3,
	)

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "************1111", records[0]["card_number"])
	assert.Equal(t, "[redacted]", records[0]["cvv"])
	assert.Equal(t, map[string]any{"code": "[redacted]"}, records[0]["card"])
	assert.Equal(t, float64(3), records[0]["order_id"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}
