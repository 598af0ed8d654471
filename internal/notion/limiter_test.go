package notion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storygraph-backend/internal/notion"
)

func TestReservoirLimiter_BurstThenBlock(t *testing.T) {
	limiter := notion.NewReservoirLimiter(3, 200*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "the initial reservoir is a free burst")
	assert.Equal(t, 0, limiter.Available())

	// The fourth acquire must wait for the refill tick.
	require.NoError(t, limiter.Acquire(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestReservoirLimiter_RefillRestoresFullReservoir(t *testing.T) {
	limiter := notion.NewReservoirLimiter(3, 50*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	time.Sleep(60 * time.Millisecond)

	// One refill restores all three tokens at once, not one per tick.
	assert.Equal(t, 3, limiter.Available())
}

func TestReservoirLimiter_MissedIntervalsDoNotAccumulate(t *testing.T) {
	limiter := notion.NewReservoirLimiter(2, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 2, limiter.Available(), "tokens cap at reservoir size")
}

func TestReservoirLimiter_AcquireHonorsContext(t *testing.T) {
	limiter := notion.NewReservoirLimiter(1, time.Minute)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDisabledLimiter_NeverBlocks(t *testing.T) {
	limiter := notion.NewDisabledLimiter()
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
