package memory

import (
	"context"
	"testing"
	"time"
)

func TestSlidingWindowStoreCountsWithinWindow(t *testing.T) {
	store := NewSlidingWindowStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := store.RecordAttempt(ctx, "192.0.2.1", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}

	reference := now.Add(10 * time.Second)
	if err := store.TrimWindow(ctx, "192.0.2.1", time.Minute, reference); err != nil {
		t.Fatalf("trim window: %v", err)
	}

	count, err := store.CountAttempts(ctx, "192.0.2.1", time.Minute, reference)
	if err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 attempts, got %d", count)
	}
}

func TestSlidingWindowStoreExactWindowAgeIsOutside(t *testing.T) {
	store := NewSlidingWindowStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = store.RecordAttempt(ctx, "client", now)

	// Exactly 60s old: outside the window under the strict inequality.
	reference := now.Add(time.Minute)
	if err := store.TrimWindow(ctx, "client", time.Minute, reference); err != nil {
		t.Fatalf("trim window: %v", err)
	}

	count, err := store.CountAttempts(ctx, "client", time.Minute, reference)
	if err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 attempts, got %d", count)
	}
}

func TestSlidingWindowStoreJustInsideWindowSurvives(t *testing.T) {
	store := NewSlidingWindowStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = store.RecordAttempt(ctx, "client", now)

	reference := now.Add(time.Minute - time.Millisecond)
	if err := store.TrimWindow(ctx, "client", time.Minute, reference); err != nil {
		t.Fatalf("trim window: %v", err)
	}

	count, err := store.CountAttempts(ctx, "client", time.Minute, reference)
	if err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt, got %d", count)
	}
}

func TestSlidingWindowStoreDropsEmptyIdentifiers(t *testing.T) {
	store := NewSlidingWindowStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = store.RecordAttempt(ctx, "a", now)
	_ = store.RecordAttempt(ctx, "b", now)

	if got := store.Len(); got != 2 {
		t.Fatalf("expected 2 identifiers, got %d", got)
	}

	if err := store.TrimWindow(ctx, "a", time.Minute, now.Add(2*time.Minute)); err != nil {
		t.Fatalf("trim window: %v", err)
	}

	if got := store.Len(); got != 1 {
		t.Fatalf("expected stale identifier to be removed, got %d", got)
	}
}

func TestSlidingWindowStoreOldestAttempt(t *testing.T) {
	store := NewSlidingWindowStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_ = store.RecordAttempt(ctx, "client", now.Add(-90*time.Second))
	_ = store.RecordAttempt(ctx, "client", now.Add(-30*time.Second))
	_ = store.RecordAttempt(ctx, "client", now.Add(-10*time.Second))

	oldest, found, err := store.OldestAttempt(ctx, "client", time.Minute, now)
	if err != nil {
		t.Fatalf("oldest attempt: %v", err)
	}
	if !found {
		t.Fatal("expected an attempt inside the window")
	}
	if want := now.Add(-30 * time.Second); !oldest.Equal(want) {
		t.Fatalf("expected oldest %v, got %v", want, oldest)
	}

	_, found, err = store.OldestAttempt(ctx, "unknown", time.Minute, now)
	if err != nil {
		t.Fatalf("oldest attempt: %v", err)
	}
	if found {
		t.Fatal("expected no attempt for unknown identifier")
	}
}
