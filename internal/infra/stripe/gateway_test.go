package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	stripeapi "github.com/stripe/stripe-go/v81"
	"go.uber.org/zap/zaptest"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/infra/config"
)

const testWebhookSecret = "whsec_test_secret"

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	return NewGateway(config.PaymentSettings{
		SecretKey:     "sk_test_key",
		WebhookSecret: testWebhookSecret,
	}, zaptest.NewLogger(t))
}

// signPayload builds a Stripe-Signature header for the given body.
func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestTruncateProductName(t *testing.T) {
	short := "短いタイトル"
	if got := truncateProductName(short); got != short {
		t.Fatalf("short title changed: %q", got)
	}

	long := strings.Repeat("技", maxProductNameLength+20)
	got := truncateProductName(long)
	if n := utf8.RuneCountInString(got); n != maxProductNameLength {
		t.Fatalf("expected %d runes, got %d", maxProductNameLength, n)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated title is not valid UTF-8: %q", got)
	}
	if !strings.HasPrefix(long, got) {
		t.Fatalf("truncated title is not a prefix of the original")
	}
}

func TestVerifyWebhookCheckoutSessionCompleted(t *testing.T) {
	gateway := newTestGateway(t)

	payload := []byte(`{
		"id": "evt_test_1",
		"api_version": "` + stripeapi.APIVersion + `",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_123",
				"object": "checkout.session",
				"amount_total": 500,
				"currency": "jpy",
				"payment_intent": "pi_test_456",
				"metadata": {"article_id": "42", "client_ip": "203.0.113.9"}
			}
		}
	}`)

	event, err := gateway.VerifyWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("VerifyWebhook returned error: %v", err)
	}

	if event.Type != domain.EventCheckoutSessionCompleted {
		t.Fatalf("unexpected event type: %s", event.Type)
	}

	if event.SessionID != "cs_test_123" {
		t.Fatalf("unexpected session id: %s", event.SessionID)
	}

	if event.PaymentIntentID != "pi_test_456" {
		t.Fatalf("unexpected payment intent id: %s", event.PaymentIntentID)
	}

	if event.ArticleID != "42" {
		t.Fatalf("unexpected article id: %s", event.ArticleID)
	}

	if event.Amount != 500 || event.Currency != "jpy" {
		t.Fatalf("unexpected amount/currency: %d %s", event.Amount, event.Currency)
	}
}

func TestVerifyWebhookPaymentIntentSucceeded(t *testing.T) {
	gateway := newTestGateway(t)

	payload := []byte(`{
		"id": "evt_test_2",
		"api_version": "` + stripeapi.APIVersion + `",
		"type": "payment_intent.succeeded",
		"data": {
			"object": {
				"id": "pi_test_789",
				"object": "payment_intent",
				"amount": 1200,
				"currency": "jpy",
				"metadata": {"article_id": "7"}
			}
		}
	}`)

	event, err := gateway.VerifyWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("VerifyWebhook returned error: %v", err)
	}

	if event.Type != domain.EventPaymentIntentSucceeded {
		t.Fatalf("unexpected event type: %s", event.Type)
	}

	if event.PaymentIntentID != "pi_test_789" {
		t.Fatalf("unexpected payment intent id: %s", event.PaymentIntentID)
	}

	if event.ArticleID != "7" {
		t.Fatalf("unexpected article id: %s", event.ArticleID)
	}
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	gateway := newTestGateway(t)

	payload := []byte(`{"id": "evt_test_3", "type": "checkout.session.completed", "data": {"object": {}}}`)

	_, err := gateway.VerifyWebhook(payload, signPayload(payload, "whsec_wrong_secret", time.Now()))
	if !errors.Is(err, port.ErrInvalidWebhookSignature) {
		t.Fatalf("expected ErrInvalidWebhookSignature, got %v", err)
	}
}

func TestVerifyWebhookRejectsStaleTimestamp(t *testing.T) {
	gateway := newTestGateway(t)

	payload := []byte(`{"id": "evt_test_4", "type": "checkout.session.completed", "data": {"object": {}}}`)

	stale := time.Now().Add(-time.Hour)
	_, err := gateway.VerifyWebhook(payload, signPayload(payload, testWebhookSecret, stale))
	if !errors.Is(err, port.ErrInvalidWebhookSignature) {
		t.Fatalf("expected ErrInvalidWebhookSignature, got %v", err)
	}
}

func TestVerifyWebhookRejectsMalformedBody(t *testing.T) {
	gateway := newTestGateway(t)

	payload := []byte(`{not json`)

	_, err := gateway.VerifyWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if !errors.Is(err, port.ErrInvalidWebhookPayload) {
		t.Fatalf("expected ErrInvalidWebhookPayload, got %v", err)
	}
}

func TestVerifyWebhookPassesThroughUnknownTypes(t *testing.T) {
	gateway := newTestGateway(t)

	payload := []byte(`{"id": "evt_test_5", "api_version": "` + stripeapi.APIVersion + `", "type": "invoice.paid", "data": {"object": {"id": "in_test_1"}}}`)

	event, err := gateway.VerifyWebhook(payload, signPayload(payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("VerifyWebhook returned error: %v", err)
	}

	if event.Type != "invoice.paid" {
		t.Fatalf("unexpected event type: %s", event.Type)
	}

	if event.SessionID != "" || event.PaymentIntentID != "" {
		t.Fatalf("unknown event should carry no identifiers: %+v", event)
	}
}
