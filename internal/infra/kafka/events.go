package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	ArticleID string           `json:"article_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, articleID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		ArticleID: articleID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishPurchaseCompleted publishes blog.purchase.completed events.
func (p *EventPublisher) PublishPurchaseCompleted(ctx context.Context, event domain.PurchaseCompletedEvent) error {
	payload := struct {
		SessionID   string         `json:"session_id"`
		ArticleID   string         `json:"article_id"`
		Amount      int64          `json:"amount"`
		Currency    string         `json:"currency"`
		CompletedAt time.Time      `json:"completed_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		SessionID:   event.SessionID,
		ArticleID:   event.ArticleID,
		Amount:      event.Amount,
		Currency:    event.Currency,
		CompletedAt: event.CompletedAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "blog.purchase.completed", event.ArticleID, event.CompletedAt, payload)
}

// PublishPaymentSucceeded publishes blog.payment.succeeded events.
func (p *EventPublisher) PublishPaymentSucceeded(ctx context.Context, event domain.PaymentSucceededEvent) error {
	payload := struct {
		PaymentIntentID string         `json:"payment_intent_id"`
		ArticleID       string         `json:"article_id,omitempty"`
		Amount          int64          `json:"amount"`
		Currency        string         `json:"currency"`
		SucceededAt     time.Time      `json:"succeeded_at"`
		Metadata        map[string]any `json:"metadata,omitempty"`
	}{
		PaymentIntentID: event.PaymentIntentID,
		ArticleID:       event.ArticleID,
		Amount:          event.Amount,
		Currency:        event.Currency,
		SucceededAt:     event.SucceededAt.UTC(),
		Metadata:        event.Metadata,
	}

	return p.publish(ctx, event.EventID, "blog.payment.succeeded", event.ArticleID, event.SucceededAt, payload)
}
