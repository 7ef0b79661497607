package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/jobbyai/planguard/pkg/plans"
)

// PaddleSignatureHeader carries the webhook signature.
const PaddleSignatureHeader = "Paddle-Signature"

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	// PricePlans maps Paddle price ids to plan ids, e.g. "pri_01h:basic,pri_02h:pro".
	PricePlans map[string]string `env:"PADDLE_PRICE_PLANS"`
}

// PaddleProvider implements BillingProvider for Paddle Billing webhooks.
type PaddleProvider struct {
	verifier *paddle.WebhookVerifier
	prices   map[string]plans.ID
}

// NewPaddleProvider creates a Paddle webhook provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	prices := make(map[string]plans.ID, len(cfg.PricePlans))
	for priceID, planID := range cfg.PricePlans {
		id, err := plans.ParseID(planID)
		if err != nil {
			return nil, fmt.Errorf("paddle price %s: %w", priceID, err)
		}
		prices[strings.TrimSpace(priceID)] = id
	}

	return &PaddleProvider{
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		prices:   prices,
	}, nil
}

// ParseWebhook verifies the Paddle-Signature and normalizes the notification.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	// The SDK verifier works on requests.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhooks/paddle", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set(PaddleSignatureHeader, signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	return p.parse(payload)
}

type paddleNotification struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		ID             string         `json:"id"`
		SubscriptionID string         `json:"subscription_id"`
		Status         string         `json:"status"`
		CustomData     map[string]any `json:"custom_data"`
		Items          []struct {
			PriceID string `json:"price_id"`
			Price   *struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"items"`
		CurrentBillingPeriod *paddlePeriod `json:"current_billing_period"`
		BillingPeriod        *paddlePeriod `json:"billing_period"`
	} `json:"data"`
}

type paddlePeriod struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (p *PaddleProvider) parse(payload []byte) (*WebhookEvent, error) {
	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}
	if n.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrInvalidWebhookPayload)
	}

	event := &WebhookEvent{
		ID:            n.EventID,
		ProviderEvent: n.EventType,
		Kind:          paddleKind(n.EventType),
		UserID:        customString(n.Data.CustomData, "user_id", "customer_id"),
		OccurredAt:    n.OccurredAt.UTC(),
	}

	switch {
	case strings.HasPrefix(n.EventType, "subscription."):
		event.ProviderSubID = n.Data.ID
		event.Status = paddleStatus(n.Data.Status)
		if n.Data.CurrentBillingPeriod != nil {
			end := n.Data.CurrentBillingPeriod.EndsAt.UTC()
			event.PeriodEnd = &end
		}
	case strings.HasPrefix(n.EventType, "transaction."):
		event.ProviderSubID = n.Data.SubscriptionID
		if n.Data.BillingPeriod != nil {
			end := n.Data.BillingPeriod.EndsAt.UTC()
			event.PeriodEnd = &end
		}
		// One-off transactions carry no subscription.
		if event.ProviderSubID == "" {
			event.Kind = WebhookIgnored
		}
	}

	if event.Kind == WebhookIgnored {
		return event, nil
	}

	planID, err := p.resolvePlan(n)
	if err != nil {
		return nil, err
	}
	event.PlanID = planID
	return event, nil
}

// resolvePlan maps the first item's price to a plan, falling back to custom_data.plan_id.
func (p *PaddleProvider) resolvePlan(n paddleNotification) (plans.ID, error) {
	var priceID string
	if len(n.Data.Items) > 0 {
		item := n.Data.Items[0]
		priceID = item.PriceID
		if item.Price != nil && item.Price.ID != "" {
			priceID = item.Price.ID
		}
	}
	if id, ok := p.prices[priceID]; ok {
		return id, nil
	}

	if custom := customString(n.Data.CustomData, "plan_id"); custom != "" {
		return plans.ParseID(custom)
	}
	if priceID != "" {
		return "", fmt.Errorf("%w: %s", ErrUnmappedPrice, priceID)
	}
	return "", nil
}

func paddleKind(eventType string) WebhookKind {
	switch eventType {
	case "subscription.created", "subscription.activated", "subscription.updated",
		"subscription.trialing", "subscription.past_due", "subscription.canceled",
		"subscription.paused", "subscription.resumed":
		return WebhookSubscriptionChanged
	case "transaction.completed", "transaction.paid":
		return WebhookPaymentSucceeded
	case "transaction.payment_failed", "transaction.past_due":
		return WebhookPaymentFailed
	default:
		return WebhookIgnored
	}
}

// paddleStatus maps a Paddle subscription status. Paused subscriptions grant
// no paid access, so they count as canceled.
func paddleStatus(s string) Status {
	switch strings.ToLower(s) {
	case "trialing":
		return StatusTrialing
	case "active":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled", "paused":
		return StatusCanceled
	default:
		return ""
	}
}

func customString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
