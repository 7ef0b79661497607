package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbyai/planguard/pkg/statemachine"
)

type light string
type signal string

func TestTable_Fire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("moves to target", func(t *testing.T) {
		t.Parallel()

		table := statemachine.New[light, signal]().
			Add("red", "green", "go").
			Add("green", "red", "stop")

		next, err := table.Fire(ctx, "red", "go", nil)
		require.NoError(t, err)
		assert.Equal(t, light("green"), next)
	})

	t.Run("unknown event", func(t *testing.T) {
		t.Parallel()

		table := statemachine.New[light, signal]().Add("red", "green", "go")

		next, err := table.Fire(ctx, "green", "go", nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.Equal(t, light("green"), next)
		assert.Contains(t, err.Error(), "'green'")
	})

	t.Run("guards branch in order", func(t *testing.T) {
		t.Parallel()

		isEmergency := func(_ context.Context, _ light, _ signal, data any) bool {
			v, _ := data.(bool)
			return v
		}
		table := statemachine.New[light, signal]().
			Add("green", "red", "stop", statemachine.WithGuard(isEmergency)).
			Add("green", "yellow", "stop")

		next, err := table.Fire(ctx, "green", "stop", true)
		require.NoError(t, err)
		assert.Equal(t, light("red"), next)

		next, err = table.Fire(ctx, "green", "stop", false)
		require.NoError(t, err)
		assert.Equal(t, light("yellow"), next)
	})

	t.Run("rejected by guard", func(t *testing.T) {
		t.Parallel()

		never := func(context.Context, light, signal, any) bool { return false }
		table := statemachine.New[light, signal]().
			Add("red", "green", "go", statemachine.WithGuard(never))

		_, err := table.Fire(ctx, "red", "go", nil)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
		assert.False(t, table.CanFire(ctx, "red", "go", nil))
	})

	t.Run("actions run in order and abort on error", func(t *testing.T) {
		t.Parallel()

		var calls []string
		boom := errors.New("boom")
		table := statemachine.New[light, signal]().
			Add("red", "green", "go",
				statemachine.WithAction(func(_ context.Context, from, to light, _ signal, _ any) error {
					calls = append(calls, string(from)+"->"+string(to))
					return nil
				}),
				statemachine.WithAction(func(context.Context, light, light, signal, any) error {
					calls = append(calls, "second")
					return boom
				}),
			)

		next, err := table.Fire(ctx, "red", "go", nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, light("red"), next)
		assert.Equal(t, []string{"red->green", "second"}, calls)
	})
}

func TestTable_Events(t *testing.T) {
	t.Parallel()

	table := statemachine.New[light, signal]().
		Add("red", "green", "go").
		Add("red", "red", "wait")

	assert.ElementsMatch(t, []signal{"go", "wait"}, table.Events("red"))
	assert.Empty(t, table.Events("yellow"))
}
