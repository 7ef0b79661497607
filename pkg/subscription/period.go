package subscription

import (
	"fmt"
	"time"

	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/usage"
)

// GetCurrentPeriod returns the billing period usage is counted against.
//
// Trialing subscriptions use [CreatedAt, TrialEnd). Active and past-due ones use
// [CurrentPeriodEnd-cycle, CurrentPeriodEnd), rolled forward in whole cycles while
// now is at or past the end, so usage restarts at zero even before the renewal
// event is recorded. Canceled subscriptions roll cycles from the cancellation.
func GetCurrentPeriod(sub *Subscription, now time.Time, cycle time.Duration) (usage.Period, error) {
	if sub == nil {
		return usage.Period{}, ErrNoSubscription
	}
	if cycle <= 0 {
		return usage.Period{}, ErrInvalidCycle
	}

	switch sub.Status {
	case StatusTrialing:
		if sub.TrialEnd == nil {
			return usage.Period{}, fmt.Errorf("%w: trialing without trial end", ErrInvalidSubscription)
		}
		return usage.NewPeriod(sub.CreatedAt, *sub.TrialEnd)
	case StatusActive, StatusPastDue:
		end := sub.CurrentPeriodEnd
		return rollForward(end.Add(-cycle), end, now, cycle)
	case StatusCanceled:
		return anchoredPeriod(canceledAt(sub), now, cycle)
	default:
		return usage.Period{}, fmt.Errorf("%w: status %q", ErrInvalidSubscription, sub.Status)
	}
}

// Terms are the effective entitlements of a subscription at a point in time.
type Terms struct {
	PlanID   plans.ID     `json:"plan_id"`
	Status   Status       `json:"status"`
	Period   usage.Period `json:"period"`
	Fallback bool         `json:"fallback"` // true when the FREE plan applies instead of the subscribed one
}

// ResolveTerms maps a subscription to the plan and period that govern usage now.
// Canceled subscriptions, past-due ones beyond grace and expired trials fall
// back to the FREE plan.
func ResolveTerms(sub *Subscription, now time.Time, cycle, grace time.Duration) (Terms, error) {
	if sub == nil {
		return Terms{}, ErrNoSubscription
	}
	if cycle <= 0 {
		return Terms{}, ErrInvalidCycle
	}

	terms := Terms{PlanID: sub.PlanID, Status: sub.Status}
	var (
		period usage.Period
		err    error
	)

	switch {
	case sub.IsTrialExpiredAt(now):
		terms.Fallback = true
		period, err = anchoredPeriod(*sub.TrialEnd, now, cycle)
	case sub.Status == StatusPastDue && !now.Before(pastDueSince(sub).Add(grace)):
		terms.Fallback = true
		period, err = GetCurrentPeriod(sub, now, cycle)
	case sub.Status == StatusCanceled:
		terms.Fallback = true
		period, err = GetCurrentPeriod(sub, now, cycle)
	default:
		period, err = GetCurrentPeriod(sub, now, cycle)
	}
	if err != nil {
		return Terms{}, err
	}

	if terms.Fallback {
		terms.PlanID = plans.Free
	}
	terms.Period = period
	return terms, nil
}

func rollForward(start, end, now time.Time, cycle time.Duration) (usage.Period, error) {
	if !now.Before(end) {
		k := now.Sub(end)/cycle + 1
		start = start.Add(k * cycle)
		end = end.Add(k * cycle)
	}
	return usage.NewPeriod(start, end)
}

// anchoredPeriod is the cycle-sized window containing now, counted from anchor.
func anchoredPeriod(anchor, now time.Time, cycle time.Duration) (usage.Period, error) {
	return rollForward(anchor, anchor.Add(cycle), now, cycle)
}

func canceledAt(sub *Subscription) time.Time {
	if sub.CanceledAt != nil {
		return *sub.CanceledAt
	}
	return sub.UpdatedAt
}

func pastDueSince(sub *Subscription) time.Time {
	if sub.PastDueSince != nil {
		return *sub.PastDueSince
	}
	return sub.UpdatedAt
}
