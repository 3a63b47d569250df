package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
)

var (
	// ErrInvalidAmount indicates the amount is outside (0, MaxAmount].
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrTitleRequired indicates a blank article title.
	ErrTitleRequired = errors.New("article title is required")
	// ErrInvalidRedirectURL indicates a redirect URL outside the allow-list.
	ErrInvalidRedirectURL = errors.New("invalid redirect url")
	// ErrPaymentProcessing indicates the gateway declined the request.
	ErrPaymentProcessing = errors.New("payment processing error")
)

// PaymentPolicy bounds checkout-session creation.
type PaymentPolicy struct {
	// MaxAmount is the inclusive upper bound on a purchase, in the smallest
	// currency unit.
	MaxAmount int64
	Currency  string
	// AllowedRedirectHosts lists hostnames the success/cancel URLs may
	// point at.
	AllowedRedirectHosts []string
	// SessionExpiry is how long a created checkout session stays valid.
	SessionExpiry time.Duration
}

// DefaultPaymentPolicy mirrors the production configuration defaults.
func DefaultPaymentPolicy() PaymentPolicy {
	return PaymentPolicy{
		MaxAmount:            100000,
		Currency:             "jpy",
		AllowedRedirectHosts: []string{"localhost", "127.0.0.1"},
		SessionExpiry:        30 * time.Minute,
	}
}

// CheckoutRequest is the validated input for session creation.
type CheckoutRequest struct {
	ArticleID    int64
	Amount       int64
	ArticleTitle string
	SuccessURL   string
	CancelURL    string
	ClientIP     string
}

// PaymentService validates checkout requests, delegates to the gateway, and
// dispatches verified webhook events.
type PaymentService struct {
	gateway port.PaymentGateway
	events  port.EventPublisher
	policy  PaymentPolicy
	logger  *zap.Logger
	now     func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(gateway port.PaymentGateway, events port.EventPublisher, policy PaymentPolicy, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxAmount <= 0 {
		policy.MaxAmount = 100000
	}
	if policy.Currency == "" {
		policy.Currency = "jpy"
	}
	if policy.SessionExpiry <= 0 {
		policy.SessionExpiry = 30 * time.Minute
	}
	return &PaymentService{
		gateway: gateway,
		events:  events,
		policy:  policy,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *PaymentService) WithClock(clock func() time.Time) *PaymentService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// CreateCheckoutSession validates the request and opens a session at the
// gateway. Gateway failures are logged in full but surface only as a generic
// processing error.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*domain.CheckoutSession, error) {
	start := s.now()

	if req.Amount <= 0 || req.Amount > s.policy.MaxAmount {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(req.ArticleTitle) == "" {
		return nil, ErrTitleRequired
	}
	for _, raw := range []string{req.SuccessURL, req.CancelURL} {
		if err := s.validateRedirectURL(raw); err != nil {
			return nil, err
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, domain.CheckoutSessionInput{
		ArticleID:    req.ArticleID,
		ArticleTitle: req.ArticleTitle,
		Amount:       req.Amount,
		Currency:     s.policy.Currency,
		SuccessURL:   req.SuccessURL,
		CancelURL:    req.CancelURL,
		ClientIP:     req.ClientIP,
		ExpiresAt:    start.Add(s.policy.SessionExpiry),
	})
	if err != nil {
		s.logger.Error("checkout session creation failed",
			zap.Int64("article_id", req.ArticleID),
			zap.Duration("elapsed", s.now().Sub(start)),
			zap.Error(err),
		)
		if errors.Is(err, port.ErrGatewayDeclined) {
			return nil, ErrPaymentProcessing
		}
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Int64("article_id", req.ArticleID),
		zap.Duration("elapsed", s.now().Sub(start)),
	)

	return session, nil
}

// HandleWebhook verifies the gateway signature and dispatches on event type.
// Unknown event types are acknowledged without action.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("webhook verification failed", zap.Error(err))
		return err
	}

	switch event.Type {
	case domain.EventCheckoutSessionCompleted:
		s.logger.Info("purchase completed",
			zap.String("session_id", event.SessionID),
			zap.String("article_id", event.ArticleID),
		)
		// Purchase state is not persisted here; downstream consumers
		// react to the published event.
		if s.events != nil {
			if err := s.events.PublishPurchaseCompleted(ctx, domain.PurchaseCompletedEvent{
				EventID:     uuid.NewString(),
				SessionID:   event.SessionID,
				ArticleID:   event.ArticleID,
				Amount:      event.Amount,
				Currency:    event.Currency,
				CompletedAt: s.now(),
			}); err != nil {
				s.logger.Error("publish purchase completed failed", zap.Error(err))
			}
		}
	case domain.EventPaymentIntentSucceeded:
		s.logger.Info("payment succeeded",
			zap.String("payment_intent_id", event.PaymentIntentID),
			zap.String("article_id", event.ArticleID),
		)
		if s.events != nil {
			if err := s.events.PublishPaymentSucceeded(ctx, domain.PaymentSucceededEvent{
				EventID:         uuid.NewString(),
				PaymentIntentID: event.PaymentIntentID,
				ArticleID:       event.ArticleID,
				Amount:          event.Amount,
				Currency:        event.Currency,
				SucceededAt:     s.now(),
			}); err != nil {
				s.logger.Error("publish payment succeeded failed", zap.Error(err))
			}
		}
	default:
		s.logger.Debug("ignoring webhook event", zap.String("type", event.Type))
	}

	return nil
}

func (s *PaymentService) validateRedirectURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidRedirectURL
	}

	host := parsed.Hostname()
	if host == "" {
		return ErrInvalidRedirectURL
	}

	for _, allowed := range s.policy.AllowedRedirectHosts {
		if strings.EqualFold(host, allowed) {
			return nil
		}
	}

	return ErrInvalidRedirectURL
}
