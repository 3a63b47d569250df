package port

import (
	"context"
	"time"
)

// RateLimitStore records request attempts for sliding-window rate limiting.
// A timestamp exactly window old counts as outside the window; only
// reference-ts < window survives a trim.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
