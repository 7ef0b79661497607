package plans_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbyai/planguard/pkg/plans"
)

func TestQuota(t *testing.T) {
	t.Parallel()

	n, finite := plans.Limit(5).Value()
	assert.True(t, finite)
	assert.Equal(t, int64(5), n)

	_, finite = plans.Unlimited.Value()
	assert.False(t, finite)
	assert.True(t, plans.Unlimited.IsUnlimited())

	assert.Equal(t, plans.Limit(0), plans.Limit(-3), "negative limits clamp to zero")
	assert.Equal(t, plans.Limit(0), plans.Quota{}, "zero value is a finite zero")

	assert.Equal(t, int64(-1), plans.Unlimited.Int64())
	assert.Equal(t, plans.Unlimited, plans.QuotaFromInt64(-1))
	assert.Equal(t, plans.Limit(7), plans.QuotaFromInt64(7))

	assert.Equal(t, plans.Limit(3), plans.Limit(1).Add(2))
	assert.Equal(t, plans.Unlimited, plans.Unlimited.Add(2))

	assert.True(t, plans.Limit(1).Less(plans.Limit(2)))
	assert.True(t, plans.Limit(1000).Less(plans.Unlimited))
	assert.False(t, plans.Unlimited.Less(plans.Limit(1)))
	assert.False(t, plans.Unlimited.Less(plans.Unlimited))
}

func TestQuota_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(map[string]plans.Quota{"a": plans.Limit(3), "b": plans.Unlimited})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":"unlimited"}`, string(data))

	var q plans.Quota
	require.NoError(t, json.Unmarshal([]byte(`"unlimited"`), &q))
	assert.True(t, q.IsUnlimited())

	require.NoError(t, json.Unmarshal([]byte(`12`), &q))
	assert.Equal(t, plans.Limit(12), q)

	assert.ErrorIs(t, json.Unmarshal([]byte(`-1`), &q), plans.ErrInvalidQuota)
	assert.ErrorIs(t, json.Unmarshal([]byte(`"lots"`), &q), plans.ErrInvalidQuota)
}

func TestParseFeature(t *testing.T) {
	t.Parallel()

	f, err := plans.ParseFeature("job_analysis")
	require.NoError(t, err)
	assert.Equal(t, plans.FeatureJobAnalysis, f)

	_, err = plans.ParseFeature("scam_report")
	assert.ErrorIs(t, err, plans.ErrUnknownFeature)

	id, err := plans.ParseID("pro")
	require.NoError(t, err)
	assert.Equal(t, plans.Pro, id)

	_, err = plans.ParseID("gold")
	assert.ErrorIs(t, err, plans.ErrUnknownPlan)
}
