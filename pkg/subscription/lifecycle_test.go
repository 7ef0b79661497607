package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
)

const cycle = 30 * 24 * time.Hour

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func subWithStatus(status subscription.Status) subscription.Subscription {
	trialEnd := t0.Add(14 * 24 * time.Hour)
	sub := subscription.Subscription{
		UserID:           "user-1",
		Version:          1,
		PlanID:           plans.Basic,
		Status:           status,
		CreatedAt:        t0,
		UpdatedAt:        t0,
		CurrentPeriodEnd: t0.Add(cycle),
	}
	if status == subscription.StatusTrialing {
		sub.TrialEnd = &trialEnd
		sub.CurrentPeriodEnd = trialEnd
	}
	return sub
}

func TestTransition_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  subscription.Status
		event subscription.EventType
		to    subscription.Status
	}{
		{subscription.StatusTrialing, subscription.EventTrialConverted, subscription.StatusActive},
		{subscription.StatusTrialing, subscription.EventTrialExpired, subscription.StatusCanceled},
		{subscription.StatusActive, subscription.EventPaymentFailed, subscription.StatusPastDue},
		{subscription.StatusPastDue, subscription.EventPaymentRecovered, subscription.StatusActive},
		{subscription.StatusPastDue, subscription.EventGraceExceeded, subscription.StatusCanceled},
		{subscription.StatusActive, subscription.EventRenewed, subscription.StatusActive},
		{subscription.StatusTrialing, subscription.EventCanceled, subscription.StatusCanceled},
		{subscription.StatusActive, subscription.EventCanceled, subscription.StatusCanceled},
		{subscription.StatusPastDue, subscription.EventCanceled, subscription.StatusCanceled},
		{subscription.StatusCanceled, subscription.EventReactivated, subscription.StatusActive},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			t.Parallel()

			cur := subWithStatus(tt.from)
			next, err := subscription.Transition(context.Background(), cur, subscription.Event{Type: tt.event}, t0.Add(time.Hour), cycle)
			require.NoError(t, err)
			assert.Equal(t, tt.to, next.Status)
			assert.Equal(t, cur.Version+1, next.Version)
			assert.Equal(t, cur.UserID, next.UserID)
		})
	}
}

func TestTransition_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from  subscription.Status
		event subscription.EventType
	}{
		{subscription.StatusActive, subscription.EventTrialConverted},
		{subscription.StatusCanceled, subscription.EventPaymentFailed},
		{subscription.StatusTrialing, subscription.EventPaymentRecovered},
		{subscription.StatusActive, subscription.EventGraceExceeded},
		{subscription.StatusCanceled, subscription.EventCanceled},
		{subscription.StatusPastDue, subscription.EventRenewed},
		{subscription.StatusActive, subscription.EventReactivated},
		{subscription.StatusCanceled, subscription.EventPlanChanged},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			t.Parallel()

			_, err := subscription.Transition(context.Background(), subWithStatus(tt.from),
				subscription.Event{Type: tt.event, PlanID: plans.Pro}, t0, cycle)
			assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
		})
	}

	t.Run("unknown event", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.Transition(context.Background(), subWithStatus(subscription.StatusActive),
			subscription.Event{Type: "refunded"}, t0, cycle)
		assert.ErrorIs(t, err, subscription.ErrUnknownEvent)
	})

	t.Run("plan change without plan", func(t *testing.T) {
		t.Parallel()

		_, err := subscription.Transition(context.Background(), subWithStatus(subscription.StatusActive),
			subscription.Event{Type: subscription.EventPlanChanged}, t0, cycle)
		assert.ErrorIs(t, err, subscription.ErrInvalidTransition)
	})
}

func TestTransition_Effects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	at := t0.Add(2 * time.Hour)

	t.Run("trial conversion starts a paid period on the new plan", func(t *testing.T) {
		t.Parallel()

		next, err := subscription.Transition(ctx, subWithStatus(subscription.StatusTrialing),
			subscription.Event{Type: subscription.EventTrialConverted, PlanID: plans.Pro, ProviderSubID: "sub_1"}, at, cycle)
		require.NoError(t, err)
		assert.Equal(t, plans.Pro, next.PlanID)
		assert.Equal(t, "sub_1", next.ProviderSubID)
		assert.Equal(t, at.Add(cycle), next.CurrentPeriodEnd)
	})

	t.Run("payment failure marks past due and recovery clears it", func(t *testing.T) {
		t.Parallel()

		pastDue, err := subscription.Transition(ctx, subWithStatus(subscription.StatusActive),
			subscription.Event{Type: subscription.EventPaymentFailed}, at, cycle)
		require.NoError(t, err)
		require.NotNil(t, pastDue.PastDueSince)
		assert.Equal(t, at, *pastDue.PastDueSince)

		end := t0.Add(2 * cycle)
		active, err := subscription.Transition(ctx, pastDue,
			subscription.Event{Type: subscription.EventPaymentRecovered, PeriodEnd: &end}, at.Add(time.Hour), cycle)
		require.NoError(t, err)
		assert.Nil(t, active.PastDueSince)
		assert.Equal(t, end, active.CurrentPeriodEnd)
		assert.Equal(t, 3, active.Version)
	})

	t.Run("renewal extends by one cycle", func(t *testing.T) {
		t.Parallel()

		cur := subWithStatus(subscription.StatusActive)
		next, err := subscription.Transition(ctx, cur, subscription.Event{Type: subscription.EventRenewed}, at, cycle)
		require.NoError(t, err)
		assert.Equal(t, cur.CurrentPeriodEnd.Add(cycle), next.CurrentPeriodEnd)
	})

	t.Run("provider renewal date anchors the next window", func(t *testing.T) {
		t.Parallel()

		cur := subWithStatus(subscription.StatusActive)
		providerEnd := cur.CurrentPeriodEnd.Add(31 * 24 * time.Hour)
		next, err := subscription.Transition(ctx, cur,
			subscription.Event{Type: subscription.EventRenewed, PeriodEnd: &providerEnd}, at, cycle)
		require.NoError(t, err)
		assert.Equal(t, providerEnd, next.CurrentPeriodEnd)

		p, err := subscription.GetCurrentPeriod(&next, providerEnd.Add(-time.Hour), cycle)
		require.NoError(t, err)
		assert.Equal(t, providerEnd.Add(-cycle), p.Start)
		assert.Equal(t, providerEnd, p.End)
	})

	t.Run("cancel and reactivate", func(t *testing.T) {
		t.Parallel()

		canceled, err := subscription.Transition(ctx, subWithStatus(subscription.StatusActive),
			subscription.Event{Type: subscription.EventCanceled}, at, cycle)
		require.NoError(t, err)
		require.NotNil(t, canceled.CanceledAt)

		active, err := subscription.Transition(ctx, canceled,
			subscription.Event{Type: subscription.EventReactivated, PlanID: plans.Enterprise}, at.Add(time.Hour), cycle)
		require.NoError(t, err)
		assert.Nil(t, active.CanceledAt)
		assert.Equal(t, plans.Enterprise, active.PlanID)
	})

	t.Run("input is not modified", func(t *testing.T) {
		t.Parallel()

		cur := subWithStatus(subscription.StatusActive)
		_, err := subscription.Transition(ctx, cur, subscription.Event{Type: subscription.EventPaymentFailed}, at, cycle)
		require.NoError(t, err)
		assert.Nil(t, cur.PastDueSince)
		assert.Equal(t, subscription.StatusActive, cur.Status)
	})
}

func TestAllowedEvents(t *testing.T) {
	t.Parallel()

	assert.ElementsMatch(t, []subscription.EventType{subscription.EventReactivated},
		subscription.AllowedEvents(subscription.StatusCanceled))
	assert.ElementsMatch(t, []subscription.EventType{
		subscription.EventPaymentRecovered, subscription.EventGraceExceeded,
		subscription.EventPlanChanged, subscription.EventCanceled,
	}, subscription.AllowedEvents(subscription.StatusPastDue))
}
