package port

import (
	"context"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
)

// EventPublisher delivers purchase lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishPurchaseCompleted(ctx context.Context, event domain.PurchaseCompletedEvent) error
	PublishPaymentSucceeded(ctx context.Context, event domain.PaymentSucceededEvent) error
}
