package ports

import "context"

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, orderID int64) error
	PublishOrderAccepted(ctx context.Context, orderID int64) error
	PublishOrderPaid(ctx context.Context, orderID int64) error
	PublishPaymentFailed(ctx context.Context, orderID int64, reason string) error
}
