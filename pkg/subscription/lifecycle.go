package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/statemachine"
)

// Event is a lifecycle change reported by the billing provider or an operator.
type Event struct {
	Type          EventType
	PlanID        plans.ID   // target plan for plan_changed; optional for trial_converted and reactivated
	ProviderSubID string     // recorded when set
	PeriodEnd     *time.Time // provider's new current period end, when known
	OccurredAt    time.Time  // zero means now
}

// transitionData carries the version being built through guards and actions.
type transitionData struct {
	next  *Subscription
	event Event
	at    time.Time
	cycle time.Duration
}

var lifecycle = newLifecycle()

func newLifecycle() *statemachine.Table[Status, EventType] {
	withPlan := statemachine.WithGuard[Status, EventType](func(_ context.Context, _ Status, _ EventType, data any) bool {
		return data.(*transitionData).event.PlanID != ""
	})

	t := statemachine.New[Status, EventType]()
	t.Add(StatusTrialing, StatusActive, EventTrialConverted, act(setPlan, startPaidPeriod))
	t.Add(StatusTrialing, StatusCanceled, EventTrialExpired, act(markCanceled))
	t.Add(StatusActive, StatusPastDue, EventPaymentFailed, act(markPastDue))
	t.Add(StatusPastDue, StatusActive, EventPaymentRecovered, act(clearPastDue, extendPeriod))
	t.Add(StatusPastDue, StatusCanceled, EventGraceExceeded, act(markCanceled))
	t.Add(StatusActive, StatusActive, EventRenewed, act(renewPeriod))
	for _, s := range []Status{StatusTrialing, StatusActive, StatusPastDue} {
		t.Add(s, s, EventPlanChanged, withPlan, act(setPlan))
		t.Add(s, StatusCanceled, EventCanceled, act(markCanceled))
	}
	t.Add(StatusCanceled, StatusActive, EventReactivated, act(setPlan, clearCanceled, clearPastDue, startPaidPeriod))
	return t
}

// Transition computes the next version of sub for ev at time at.
// It fails with ErrInvalidTransition when ev is not allowed from sub's status.
func Transition(ctx context.Context, sub Subscription, ev Event, at time.Time, cycle time.Duration) (Subscription, error) {
	if !ev.Type.Valid() {
		return Subscription{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	if cycle <= 0 {
		return Subscription{}, ErrInvalidCycle
	}
	if !ev.OccurredAt.IsZero() {
		at = ev.OccurredAt
	}
	at = at.UTC().Truncate(time.Microsecond)

	next := sub.next(at)
	if ev.ProviderSubID != "" {
		next.ProviderSubID = ev.ProviderSubID
	}

	to, err := lifecycle.Fire(ctx, sub.Status, ev.Type, &transitionData{
		next:  &next,
		event: ev,
		at:    at,
		cycle: cycle,
	})
	if err != nil {
		return Subscription{}, fmt.Errorf("%w: %s from %s: %w", ErrInvalidTransition, ev.Type, sub.Status, err)
	}
	next.Status = to
	return next, nil
}

// AllowedEvents lists the events that may be applied to a subscription in status s.
func AllowedEvents(s Status) []EventType {
	return lifecycle.Events(s)
}

func act(effects ...func(d *transitionData)) statemachine.Option[Status, EventType] {
	return statemachine.WithAction[Status, EventType](func(_ context.Context, _, _ Status, _ EventType, data any) error {
		d := data.(*transitionData)
		for _, effect := range effects {
			effect(d)
		}
		return nil
	})
}

func setPlan(d *transitionData) {
	if d.event.PlanID != "" {
		d.next.PlanID = d.event.PlanID
	}
}

func startPaidPeriod(d *transitionData) {
	d.next.PastDueSince = nil
	if d.event.PeriodEnd != nil {
		d.next.CurrentPeriodEnd = d.event.PeriodEnd.UTC()
		return
	}
	d.next.CurrentPeriodEnd = d.at.Add(d.cycle)
}

func extendPeriod(d *transitionData) {
	if d.event.PeriodEnd != nil && d.event.PeriodEnd.After(d.next.CurrentPeriodEnd) {
		d.next.CurrentPeriodEnd = d.event.PeriodEnd.UTC()
	}
}

func renewPeriod(d *transitionData) {
	if d.event.PeriodEnd != nil {
		extendPeriod(d)
		return
	}
	d.next.CurrentPeriodEnd = d.next.CurrentPeriodEnd.Add(d.cycle)
}

func markPastDue(d *transitionData) {
	at := d.at
	d.next.PastDueSince = &at
}

func clearPastDue(d *transitionData) {
	d.next.PastDueSince = nil
}

func markCanceled(d *transitionData) {
	at := d.at
	d.next.CanceledAt = &at
}

func clearCanceled(d *transitionData) {
	d.next.CanceledAt = nil
}
