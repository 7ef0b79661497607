package subscription_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbyai/planguard/pkg/subscription"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("append requires the next version", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sub := subWithStatus(subscription.StatusActive)
		sub.ID = uuid.New()
		require.NoError(t, store.Append(ctx, sub))

		assert.ErrorIs(t, store.Append(ctx, sub), subscription.ErrConcurrentUpdate)

		sub.Version = 3
		assert.ErrorIs(t, store.Append(ctx, sub), subscription.ErrConcurrentUpdate)

		sub.Version = 2
		require.NoError(t, store.Append(ctx, sub))

		cur, err := store.Current(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 2, cur.Version)
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sub := subWithStatus(subscription.StatusTrialing)
		sub.TrialEnd = nil
		assert.ErrorIs(t, store.Append(ctx, sub), subscription.ErrInvalidSubscription)

		sub = subWithStatus(subscription.StatusActive)
		sub.UserID = ""
		assert.ErrorIs(t, store.Append(ctx, sub), subscription.ErrMissingUserID)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		require.NoError(t, store.Append(ctx, subWithStatus(subscription.StatusTrialing)))

		cur, err := store.Current(ctx, "user-1")
		require.NoError(t, err)
		*cur.TrialEnd = t0
		cur.Status = subscription.StatusCanceled

		again, err := store.Current(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrialing, again.Status)
		assert.NotEqual(t, t0, *again.TrialEnd)
	})

	t.Run("provider lookup", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sub := subWithStatus(subscription.StatusActive)
		sub.ProviderSubID = "sub_01"
		require.NoError(t, store.Append(ctx, sub))

		userID, err := store.UserByProviderSubID(ctx, "sub_01")
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)

		_, err = store.UserByProviderSubID(ctx, "sub_02")
		assert.ErrorIs(t, err, subscription.ErrNoSubscription)
	})
}
