package subscription

import (
	"context"
	"time"

	"github.com/jobbyai/planguard/pkg/plans"
)

// BillingProvider verifies and normalizes billing webhooks.
// Implementations must validate the signature to prevent webhook spoofing.
type BillingProvider interface {
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// WebhookKind classifies a provider notification.
type WebhookKind string

const (
	WebhookSubscriptionChanged WebhookKind = "subscription_changed"
	WebhookPaymentSucceeded    WebhookKind = "payment_succeeded"
	WebhookPaymentFailed       WebhookKind = "payment_failed"
	WebhookIgnored             WebhookKind = "ignored"
)

// WebhookEvent is a billing notification normalized by a BillingProvider.
type WebhookEvent struct {
	ID            string      // provider event id
	ProviderEvent string      // original provider event name
	Kind          WebhookKind // normalized classification
	UserID        string      // from the checkout custom data, may be empty
	ProviderSubID string      // provider subscription id
	PlanID        plans.ID    // resolved from the provider price, may be empty
	Status        Status      // provider subscription status, empty for payment events
	PeriodEnd     *time.Time  // end of the provider's current billing period
	OccurredAt    time.Time
}

// DeriveEvent maps a provider notification onto the lifecycle event it implies
// for the current subscription. It returns false when the notification changes
// nothing, such as a duplicate delivery.
func DeriveEvent(cur *Subscription, wh *WebhookEvent) (Event, bool) {
	ev := Event{
		PlanID:        wh.PlanID,
		ProviderSubID: wh.ProviderSubID,
		PeriodEnd:     wh.PeriodEnd,
		OccurredAt:    wh.OccurredAt,
	}

	planChanged := wh.PlanID != "" && wh.PlanID != cur.PlanID
	extendsPeriod := wh.PeriodEnd != nil && wh.PeriodEnd.After(cur.CurrentPeriodEnd)

	switch wh.Kind {
	case WebhookPaymentFailed:
		if cur.Status == StatusActive {
			ev.Type = EventPaymentFailed
		}

	case WebhookPaymentSucceeded:
		switch cur.Status {
		case StatusTrialing:
			ev.Type = EventTrialConverted
		case StatusPastDue:
			ev.Type = EventPaymentRecovered
		case StatusCanceled:
			ev.Type = EventReactivated
		case StatusActive:
			if extendsPeriod {
				ev.Type = EventRenewed
			}
		}

	case WebhookSubscriptionChanged:
		switch wh.Status {
		case StatusActive:
			switch cur.Status {
			case StatusTrialing:
				ev.Type = EventTrialConverted
			case StatusPastDue:
				ev.Type = EventPaymentRecovered
			case StatusCanceled:
				ev.Type = EventReactivated
			case StatusActive:
				if planChanged {
					ev.Type = EventPlanChanged
				} else if extendsPeriod {
					ev.Type = EventRenewed
				}
			}
		case StatusPastDue:
			if cur.Status == StatusActive {
				ev.Type = EventPaymentFailed
			}
		case StatusCanceled:
			if cur.Status != StatusCanceled {
				ev.Type = EventCanceled
			}
		case StatusTrialing:
			if cur.Status == StatusTrialing && planChanged {
				ev.Type = EventPlanChanged
			}
		}
	}

	return ev, ev.Type != ""
}
