package payments

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

const testSecret = "whsec_test_secret"

func eventPayload(eventType, intentID, orderID string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_test",
  "object": "event",
  "api_version": %q,
  "type": %q,
  "data": {"object": {"id": %q, "object": "payment_intent", "metadata": {"order_id": %q}}}
}`, stripe.APIVersion, eventType, intentID, orderID))
}

func sign(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestAmountCents(t *testing.T) {
	assert.Equal(t, int64(19000), AmountCents(decimal.RequireFromString("190")))
	assert.Equal(t, int64(1999), AmountCents(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), AmountCents(decimal.RequireFromString("9.995")))
}

func TestParseWebhookSucceeded(t *testing.T) {
	payload := eventPayload(EventPaymentSucceeded, "pi_123", "order-1")

	p, ok, err := ParseWebhook(payload, sign(payload), testSecret)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Payment{IntentID: "pi_123", OrderID: "order-1"}, p)
}

func TestParseWebhookBadSignature(t *testing.T) {
	payload := eventPayload(EventPaymentSucceeded, "pi_123", "order-1")

	_, ok, err := ParseWebhook(payload, "t=1,v1=deadbeef", testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.False(t, ok)
}

func TestParseWebhookIgnoresOtherEvents(t *testing.T) {
	payload := eventPayload("payment_intent.created", "pi_123", "order-1")

	_, ok, err := ParseWebhook(payload, sign(payload), testSecret)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseWebhookWithoutOrderID(t *testing.T) {
	payload := eventPayload(EventPaymentSucceeded, "pi_123", "")

	_, ok, err := ParseWebhook(payload, sign(payload), testSecret)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseWebhookRequiresSecret(t *testing.T) {
	payload := eventPayload(EventPaymentSucceeded, "pi_9", "order-9")

	p, ok, err := ParseWebhook(payload, "", "")
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
	assert.False(t, ok)
	assert.Empty(t, p.OrderID)

	_, ok, err = ParseWebhook(payload, sign(payload), "")
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
	assert.False(t, ok)
}
