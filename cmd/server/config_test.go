package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbyai/planguard/pkg/config"
)

func TestAppConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load[appConfig](config.WithEnvironment(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, backendMemory, cfg.LedgerBackend)
	assert.Equal(t, backendMemory, cfg.SubscriptionBackend)
	assert.True(t, cfg.AutoProvision)
	assert.Equal(t, 720*time.Hour, cfg.BillingCycle)
	assert.Equal(t, 72*time.Hour, cfg.PastDueGrace)
	assert.Equal(t, 336*time.Hour, cfg.TrialLength)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, int64(1<<20), cfg.Gate.WebhookMaxBytes)
	assert.False(t, cfg.needsPostgres())
	assert.False(t, cfg.billingEnabled())
}

func TestAppConfig_Environment(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load[appConfig](config.WithEnvironment(map[string]string{
		"LEDGER_BACKEND":        "redis",
		"SUBSCRIPTION_BACKEND":  "postgres",
		"AUTO_PROVISION":        "false",
		"BILLING_CYCLE":         "168h",
		"PADDLE_WEBHOOK_SECRET": "pdl_ntfset_secret",
		"PADDLE_PRICE_PLANS":    "pri_basic:basic,pri_pro:pro",
	}))
	require.NoError(t, err)

	assert.Equal(t, backendRedis, cfg.LedgerBackend)
	assert.False(t, cfg.AutoProvision)
	assert.Equal(t, 168*time.Hour, cfg.BillingCycle)
	assert.True(t, cfg.needsPostgres())
	assert.True(t, cfg.billingEnabled())
	assert.Equal(t, "pro", cfg.Paddle.PricePlans["pri_pro"])
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown ledger backend", map[string]string{"LEDGER_BACKEND": "mongo"}},
		{"redis subscriptions", map[string]string{"SUBSCRIPTION_BACKEND": "redis"}},
		{"zero cycle", map[string]string{"BILLING_CYCLE": "0s"}},
		{"negative grace", map[string]string{"PAST_DUE_GRACE": "-1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load[appConfig](config.WithEnvironment(tt.env))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}
