package domain

import "time"

// PurchaseCompletedEvent is emitted when the gateway confirms a checkout
// session finished for an article.
type PurchaseCompletedEvent struct {
	EventID     string
	SessionID   string
	ArticleID   string
	Amount      int64
	Currency    string
	CompletedAt time.Time
	Metadata    map[string]any
}

// PaymentSucceededEvent is emitted when a payment intent settles.
type PaymentSucceededEvent struct {
	EventID         string
	PaymentIntentID string
	ArticleID       string
	Amount          int64
	Currency        string
	SucceededAt     time.Time
	Metadata        map[string]any
}
