package port

import (
	"context"
	"errors"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
)

var (
	// ErrGatewayDeclined indicates the payment processor rejected the request.
	// The underlying processor error is logged, never returned to clients.
	ErrGatewayDeclined = errors.New("payment gateway declined request")
	// ErrInvalidWebhookPayload indicates the webhook body could not be parsed.
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
	// ErrInvalidWebhookSignature indicates signature verification failed.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
)

// PaymentGateway abstracts the third-party payment processor.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input domain.CheckoutSessionInput) (*domain.CheckoutSession, error)
	// VerifyWebhook checks the signature header against the shared webhook
	// secret and decodes the event payload.
	VerifyWebhook(payload []byte, signature string) (*domain.PaymentEvent, error)
}
