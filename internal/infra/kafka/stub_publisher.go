package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, articleID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("article_id", articleID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishPurchaseCompleted logs blog.purchase.completed events.
func (p *StubPublisher) PublishPurchaseCompleted(_ context.Context, event domain.PurchaseCompletedEvent) error {
	payload := map[string]any{
		"session_id":   event.SessionID,
		"article_id":   event.ArticleID,
		"amount":       event.Amount,
		"currency":     event.Currency,
		"completed_at": event.CompletedAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("blog.purchase.completed", event.ArticleID, event.CompletedAt, payload)
	return nil
}

// PublishPaymentSucceeded logs blog.payment.succeeded events.
func (p *StubPublisher) PublishPaymentSucceeded(_ context.Context, event domain.PaymentSucceededEvent) error {
	payload := map[string]any{
		"payment_intent_id": event.PaymentIntentID,
		"article_id":        event.ArticleID,
		"amount":            event.Amount,
		"currency":          event.Currency,
		"succeeded_at":      event.SucceededAt,
		"metadata":          event.Metadata,
	}
	p.logEvent("blog.payment.succeeded", event.ArticleID, event.SucceededAt, payload)
	return nil
}
