package subscription_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
)

const testWebhookSecret = "pdl_ntfset_test_secret"

func signPaddle(secret string, body []byte) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":"))
	mac.Write(body)
	return "ts=" + ts + ";h1=" + hex.EncodeToString(mac.Sum(nil))
}

const subscriptionActivated = `{
	"event_id": "evt_01",
	"event_type": "subscription.activated",
	"occurred_at": "2025-01-01T10:00:00Z",
	"data": {
		"id": "sub_01",
		"status": "active",
		"custom_data": {"user_id": "user-1"},
		"items": [{"price": {"id": "pri_pro"}}],
		"current_billing_period": {"starts_at": "2025-01-01T10:00:00Z", "ends_at": "2025-01-31T10:00:00Z"}
	}
}`

func newPaddle(t *testing.T) *subscription.PaddleProvider {
	t.Helper()
	p, err := subscription.NewPaddleProvider(subscription.PaddleConfig{
		WebhookSecret: testWebhookSecret,
		PricePlans:    map[string]string{"pri_basic": "basic", "pri_pro": "pro"},
	})
	require.NoError(t, err)
	return p
}

func TestNewPaddleProvider(t *testing.T) {
	t.Parallel()

	_, err := subscription.NewPaddleProvider(subscription.PaddleConfig{})
	assert.ErrorIs(t, err, subscription.ErrMissingWebhookSecret)

	_, err = subscription.NewPaddleProvider(subscription.PaddleConfig{
		WebhookSecret: testWebhookSecret,
		PricePlans:    map[string]string{"pri_x": "platinum"},
	})
	assert.ErrorIs(t, err, plans.ErrUnknownPlan)
}

func TestPaddleProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	body := []byte(subscriptionActivated)

	t.Run("valid signature", func(t *testing.T) {
		t.Parallel()

		wh, err := newPaddle(t).ParseWebhook(ctx, body, signPaddle(testWebhookSecret, body))
		require.NoError(t, err)
		assert.Equal(t, "evt_01", wh.ID)
		assert.Equal(t, subscription.WebhookSubscriptionChanged, wh.Kind)
		assert.Equal(t, "user-1", wh.UserID)
		assert.Equal(t, "sub_01", wh.ProviderSubID)
		assert.Equal(t, plans.Pro, wh.PlanID)
		assert.Equal(t, subscription.StatusActive, wh.Status)
		require.NotNil(t, wh.PeriodEnd)
		assert.Equal(t, time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC), *wh.PeriodEnd)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		_, err := newPaddle(t).ParseWebhook(ctx, body, signPaddle("other", body))
		assert.ErrorIs(t, err, subscription.ErrWebhookVerificationFailed)
	})

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()

		sig := signPaddle(testWebhookSecret, body)
		tampered := []byte(`{"event_type":"subscription.canceled","data":{"id":"sub_01","status":"canceled"}}`)
		_, err := newPaddle(t).ParseWebhook(ctx, tampered, sig)
		assert.ErrorIs(t, err, subscription.ErrWebhookVerificationFailed)
	})

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()

		_, err := newPaddle(t).ParseWebhook(ctx, body, "")
		assert.ErrorIs(t, err, subscription.ErrWebhookVerificationFailed)
	})
}
