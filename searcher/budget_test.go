package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBudget(t *testing.T) {
	t.Run("expires at the deadline", func(t *testing.T) {
		clock := newTickClock()
		budget := NewBudget(context.Background(), 3*time.Millisecond, WithClock(clock.Now))

		require.False(t, budget.Expired(), "1ms elapsed")
		require.False(t, budget.Expired(), "2ms elapsed")
		require.True(t, budget.Expired(), "3ms elapsed reaches the deadline")
		require.Equal(t, time.Duration(0), budget.Remaining())
	})

	t.Run("no deadline never reads the clock", func(t *testing.T) {
		clock := newTickClock()
		budget := NewBudget(context.Background(), 0, WithClock(clock.Now))
		reads := clock.reads

		for i := 0; i < 10; i++ {
			require.False(t, budget.Expired())
		}
		require.Equal(t, reads, clock.reads)
		require.Equal(t, time.Duration(-1), budget.Remaining())
	})

	t.Run("cancelled context expires", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		budget := NewBudget(ctx, time.Hour)
		require.False(t, budget.Expired())

		cancel()

		require.True(t, budget.Expired())
	})

	t.Run("earlier context deadline wins", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		budget := NewBudget(ctx, time.Hour)

		require.LessOrEqual(t, budget.Remaining(), time.Millisecond)
		require.Eventually(t, budget.Expired, time.Second, time.Millisecond)
	})

	t.Run("elapsed follows the clock", func(t *testing.T) {
		clock := newTickClock()
		budget := NewBudget(context.Background(), time.Second, WithClock(clock.Now))

		require.Equal(t, time.Millisecond, budget.Elapsed())
		require.Equal(t, 2*time.Millisecond, budget.Elapsed())
	})

	t.Run("unlimited", func(t *testing.T) {
		require.False(t, Unlimited().Expired())
		require.Equal(t, time.Duration(-1), Unlimited().Remaining())
	})
}
