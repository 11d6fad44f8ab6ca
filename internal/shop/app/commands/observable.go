package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/shop/internal/shop/domain"
	"github.com/dejobratic/shop/internal/shop/metrics"
	"github.com/dejobratic/shop/internal/telemetry"
)

// rejections are caller-correctable outcomes, logged at warn level.
var rejections = []error{
	domain.ErrInsufficientStock,
	domain.ErrBasketNotFound,
	domain.ErrItemNotFound,
	domain.ErrNoBasket,
	domain.ErrOrderNotFound,
	domain.ErrProductNotFound,
	domain.ErrPaymentExpired,
	domain.ErrInvalidCardNumber,
	domain.ErrInvalidPaymentDetails,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidOrderState,
	domain.ErrInvalidDeliveryType,
	domain.ErrInvalidPaymentType,
	domain.ErrForbidden,
}

// Classify maps a command error to its metrics outcome.
func Classify(err error) metrics.Outcome {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	for _, target := range rejections {
		if errors.Is(err, target) {
			return metrics.OutcomeRejected
		}
	}
	return metrics.OutcomeError
}

// ResultRecorder receives every finished command so business metrics can be
// derived from its result.
type ResultRecorder[R any] func(ctx context.Context, result R, err error)

type ObservableHandler[C Command, R any] struct {
	handler  Handler[C, R]
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder ResultRecorder[R]
}

func NewObservableHandler[C Command, R any](handler Handler[C, R], logger *slog.Logger, metrics *metrics.Metrics) *ObservableHandler[C, R] {
	return &ObservableHandler[C, R]{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableHandler[C, R]) WithRecorder(recorder ResultRecorder[R]) *ObservableHandler[C, R] {
	o.recorder = recorder
	return o
}

func (o *ObservableHandler[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	name := cmd.CommandName()
	ctx, span := telemetry.StartSpan(ctx, name+"Command.Handle")
	defer span.End()

	attrs := cmd.Attributes()
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	o.logger.InfoContext(ctx, "handling command", logArgs(name, attrs)...)

	result, err := o.handler.Handle(ctx, cmd)

	outcome := Classify(err)
	o.metrics.RecordCommand(ctx, name, outcome, time.Since(start).Seconds())
	if o.recorder != nil {
		o.recorder(ctx, result, err)
	}

	switch outcome {
	case metrics.OutcomeRejected:
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "command rejected", append(logArgs(name, attrs), "error", err)...)
	case metrics.OutcomeError:
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "command failed", append(logArgs(name, attrs), "error", err)...)
	default:
		telemetry.SetSpanSuccess(span)
		o.logger.InfoContext(ctx, "command handled", logArgs(name, attrs)...)
	}

	return result, err
}

func logArgs(name string, attrs []attribute.KeyValue) []any {
	args := make([]any, 0, 2+2*len(attrs))
	args = append(args, "command", name)
	for _, kv := range attrs {
		args = append(args, strings.ReplaceAll(string(kv.Key), ".", "_"), kv.Value.AsInterface())
	}
	return args
}
