package domain

import "time"

// CheckoutSession identifies a hosted checkout session created at the payment
// gateway.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutSessionInput carries everything the gateway needs to open a session
// for a single article purchase.
type CheckoutSessionInput struct {
	ArticleID    int64
	ArticleTitle string
	Amount       int64
	Currency     string
	SuccessURL   string
	CancelURL    string
	ClientIP     string
	ExpiresAt    time.Time
}

// Payment event types delivered by the gateway webhook.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
)

// PaymentEvent is a verified webhook notification from the payment gateway.
type PaymentEvent struct {
	Type            string
	SessionID       string
	PaymentIntentID string
	ArticleID       string
	Amount          int64
	Currency        string
}
