package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestLogBus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bus := NewLogBus(logger)
	ctx := context.Background()

	if err := bus.PublishOrderCreated(ctx, 7); err != nil {
		t.Fatalf("PublishOrderCreated() failed: %v", err)
	}
	if err := bus.PublishPaymentFailed(ctx, 7, "insufficient stock"); err != nil {
		t.Fatalf("PublishPaymentFailed() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"event::order.created", "event::payment.failed", `"reason":"insufficient stock"`, `"order_id":7`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got %s", want, out)
		}
	}
}

func TestRecordPublish(t *testing.T) {
	t.Run("records publish latency with topic and status labels", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

		metrics, err := NewMetrics(mp.Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		ctx := context.Background()

		metrics.RecordPublish(ctx, TopicOrderCreated, 0.2, true)
		metrics.RecordPublish(ctx, TopicPaymentFailed, 0.3, false)

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			t.Fatalf("Failed to collect metrics: %v", err)
		}

		found := false
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name == "event_publish_latency_seconds" {
					found = true
					histogram, ok := m.Data.(metricdata.Histogram[float64])
					if !ok {
						t.Fatal("Expected Histogram[float64] data type")
					}
					if len(histogram.DataPoints) != 2 {
						t.Errorf("Expected 2 data points, got %d", len(histogram.DataPoints))
					}
				}
			}
		}

		if !found {
			t.Error("event_publish_latency_seconds metric not found")
		}
	})
}
