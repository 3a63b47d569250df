package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/config"
)

// Product names at the processor are capped, article titles are not.
const maxProductNameLength = 100

// Gateway implements port.PaymentGateway against the Stripe API.
type Gateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

var _ port.PaymentGateway = (*Gateway)(nil)

// NewGateway constructs a Stripe-backed payment gateway.
func NewGateway(cfg config.PaymentSettings, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &Gateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// truncateProductName cuts a title to maxProductNameLength characters. The cut
// happens on runes so a multibyte title never ends mid-sequence.
func truncateProductName(name string) string {
	runes := []rune(name)
	if len(runes) > maxProductNameLength {
		return string(runes[:maxProductNameLength])
	}
	return name
}

// CreateCheckoutSession opens a hosted checkout session for a single article.
func (g *Gateway) CreateCheckoutSession(ctx context.Context, input domain.CheckoutSessionInput) (*domain.CheckoutSession, error) {
	name := truncateProductName(input.ArticleTitle)

	params := &stripeapi.CheckoutSessionParams{
		Params: stripeapi.Params{
			Context: ctx,
		},
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency: stripeapi.String(input.Currency),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripeapi.String(name),
						Description: stripeapi.String(fmt.Sprintf("Article %d", input.ArticleID)),
					},
					UnitAmount: stripeapi.Int64(input.Amount),
				},
				Quantity: stripeapi.Int64(1),
			},
		},
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL: stripeapi.String(input.SuccessURL),
		CancelURL:  stripeapi.String(input.CancelURL),
		ExpiresAt:  stripeapi.Int64(input.ExpiresAt.Unix()),
	}
	params.AddMetadata("article_id", strconv.FormatInt(input.ArticleID, 10))
	params.AddMetadata("client_ip", input.ClientIP)

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		var stripeErr *stripeapi.Error
		if errors.As(err, &stripeErr) {
			g.logger.Warn("stripe rejected checkout session",
				zap.String("code", string(stripeErr.Code)),
				zap.String("type", string(stripeErr.Type)),
				zap.Int64("article_id", input.ArticleID),
			)
			return nil, fmt.Errorf("%w: %s", port.ErrGatewayDeclined, stripeErr.Code)
		}
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &domain.CheckoutSession{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// VerifyWebhook validates the Stripe-Signature header and decodes the event.
func (g *Gateway) VerifyWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) ||
			errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrTooOld) {
			return nil, fmt.Errorf("%w: %s", port.ErrInvalidWebhookSignature, err)
		}
		return nil, fmt.Errorf("%w: %s", port.ErrInvalidWebhookPayload, err)
	}

	switch event.Type {
	case stripeapi.EventType(domain.EventCheckoutSessionCompleted):
		var session stripeapi.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: decode checkout session: %s", port.ErrInvalidWebhookPayload, err)
		}

		paymentIntentID := ""
		if session.PaymentIntent != nil {
			paymentIntentID = session.PaymentIntent.ID
		}

		return &domain.PaymentEvent{
			Type:            domain.EventCheckoutSessionCompleted,
			SessionID:       session.ID,
			PaymentIntentID: paymentIntentID,
			ArticleID:       session.Metadata["article_id"],
			Amount:          session.AmountTotal,
			Currency:        string(session.Currency),
		}, nil

	case stripeapi.EventType(domain.EventPaymentIntentSucceeded):
		var intent stripeapi.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: decode payment intent: %s", port.ErrInvalidWebhookPayload, err)
		}

		return &domain.PaymentEvent{
			Type:            domain.EventPaymentIntentSucceeded,
			PaymentIntentID: intent.ID,
			ArticleID:       intent.Metadata["article_id"],
			Amount:          intent.Amount,
			Currency:        string(intent.Currency),
		}, nil

	default:
		return &domain.PaymentEvent{Type: string(event.Type)}, nil
	}
}
