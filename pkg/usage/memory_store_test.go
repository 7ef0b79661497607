package usage_test

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/usage"
)

func testPeriod(t *testing.T, start time.Time) usage.Period {
	t.Helper()
	p, err := usage.NewPeriod(start, start.Add(30*24*time.Hour))
	require.NoError(t, err)
	return p
}

func TestMemoryStore_ReserveUpToLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	period := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := int64(1); i <= 3; i++ {
		count, ok, err := ledger.Reserve(ctx, "user-1", plans.FeatureJobAnalysis, period, 3)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, i, count)
	}

	for range 2 {
		count, ok, err := ledger.Reserve(ctx, "user-1", plans.FeatureJobAnalysis, period, 3)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, int64(3), count)
	}

	used, err := ledger.GetUsage(ctx, "user-1", plans.FeatureJobAnalysis, period)
	require.NoError(t, err)
	assert.Equal(t, int64(3), used)
}

func TestMemoryStore_ZeroLimitNeverWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	period := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	count, ok, err := ledger.Reserve(ctx, "user-1", plans.FeatureAIAnalysis, period, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, count)

	history, err := ledger.History(ctx, "user-1", plans.FeatureAIAnalysis)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStore_IncrementUnconditional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	period := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := int64(1); i <= 5; i++ {
		count, err := ledger.IncrementUsage(ctx, "user-1", plans.FeatureResumeGeneration, period)
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}
}

func TestMemoryStore_PeriodsAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	jan := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	feb := testPeriod(t, jan.End)

	_, ok, err := ledger.Reserve(ctx, "user-1", plans.FeatureTemplates, jan, 1)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = ledger.Reserve(ctx, "user-1", plans.FeatureTemplates, jan, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	count, ok, err := ledger.Reserve(ctx, "user-1", plans.FeatureTemplates, feb, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), count)

	history, err := ledger.History(ctx, "user-1", plans.FeatureTemplates)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, feb.Start, history[0].PeriodStart)
	assert.Equal(t, jan.Start, history[1].PeriodStart)
}

func TestMemoryStore_UsersAndFeaturesAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	period := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := ledger.IncrementUsage(ctx, "user-1", plans.FeatureJobAnalysis, period)
	require.NoError(t, err)

	used, err := ledger.GetUsage(ctx, "user-2", plans.FeatureJobAnalysis, period)
	require.NoError(t, err)
	assert.Zero(t, used)

	used, err = ledger.GetUsage(ctx, "user-1", plans.FeatureTemplates, period)
	require.NoError(t, err)
	assert.Zero(t, used)
}

func TestMemoryStore_ConcurrentReservations(t *testing.T) {
	t.Parallel()

	const (
		limit   = 10
		callers = 100
	)

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	period := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	var (
		wg       sync.WaitGroup
		approved atomic.Int64
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := ledger.Reserve(ctx, "user-1", plans.FeatureJobAnalysis, period, limit)
			assert.NoError(t, err)
			if ok {
				approved.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), approved.Load())
	used, err := ledger.GetUsage(ctx, "user-1", plans.FeatureJobAnalysis, period)
	require.NoError(t, err)
	assert.Equal(t, int64(limit), used)
}

func TestLedger_Credits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	period := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	total, err := ledger.Credits(ctx, "user-1", plans.FeatureJobAnalysis, period)
	require.NoError(t, err)
	assert.Zero(t, total)

	credit, err := ledger.Grant(ctx, "user-1", plans.FeatureJobAnalysis, period, 2, " failed generation ")
	require.NoError(t, err)
	assert.Equal(t, int64(2), credit.Units)
	assert.Equal(t, "failed generation", credit.Reason)

	_, err = ledger.Grant(ctx, "user-1", plans.FeatureJobAnalysis, period, 3, "support")
	require.NoError(t, err)

	total, err = ledger.Credits(ctx, "user-1", plans.FeatureJobAnalysis, period)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	_, err = ledger.Grant(ctx, "user-1", plans.FeatureJobAnalysis, period, 0, "nothing")
	assert.ErrorIs(t, err, usage.ErrInvalidCredit)

	_, err = ledger.Grant(ctx, "user-1", plans.FeatureJobAnalysis, period, usage.MaxCreditUnits+1, "bulk")
	assert.ErrorIs(t, err, usage.ErrInvalidCredit)

	total, err = ledger.Credits(ctx, "user-1", plans.FeatureJobAnalysis, period)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
}

func TestMemoryStore_CreditsSaturate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := usage.NewMemoryStore()
	key, err := usage.NewKey("user-1", plans.FeatureJobAnalysis, testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	for _, units := range []int64{math.MaxInt64, 5} {
		require.NoError(t, store.AddCredit(ctx, usage.Credit{ID: uuid.New(), Key: key, Units: units}))
	}

	total, err := store.Credits(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), total)
}

func TestLedger_InvalidKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := usage.NewLedger(usage.NewMemoryStore())
	period := testPeriod(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := ledger.GetUsage(ctx, "", plans.FeatureJobAnalysis, period)
	assert.ErrorIs(t, err, usage.ErrInvalidKey)

	_, _, err = ledger.Reserve(ctx, "user-1", plans.Feature("unknown"), period, 1)
	assert.ErrorIs(t, err, usage.ErrInvalidKey)
	assert.ErrorIs(t, err, plans.ErrUnknownFeature)

	_, err = ledger.IncrementUsage(ctx, "user-1", plans.FeatureJobAnalysis, usage.Period{Start: period.End, End: period.Start})
	assert.ErrorIs(t, err, usage.ErrInvalidPeriod)

	_, err = ledger.History(ctx, "user-1", plans.Feature("unknown"))
	assert.ErrorIs(t, err, usage.ErrInvalidKey)
}
