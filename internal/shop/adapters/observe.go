package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/database"
	"github.com/dejobratic/shop/internal/telemetry"
)

// observe runs fn inside a span named spanName and records its duration
// under operation.
func observe[T any](
	ctx context.Context,
	metrics *database.Metrics,
	spanName, operation string,
	attrs []attribute.KeyValue,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start).Seconds()

	metrics.RecordQuery(ctx, operation, duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return result, err
	}

	telemetry.SetSpanSuccess(span)
	return result, nil
}

func observeErr(
	ctx context.Context,
	metrics *database.Metrics,
	spanName, operation string,
	attrs []attribute.KeyValue,
	fn func(ctx context.Context) error,
) error {
	_, err := observe(ctx, metrics, spanName, operation, attrs, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
