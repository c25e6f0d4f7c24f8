package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNil(t *testing.T) {
	assert.Nil(t, New(0, 10))
	assert.Nil(t, New(-1, 10))
}

func TestWait_NilLimiter(t *testing.T) {
	var l *Limiter
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestWait_NoDelay(t *testing.T) {
	l := New(100, 100)
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(1, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestWait_JitterWithinBounds(t *testing.T) {
	// 4 RPS: the second token is due ~250ms after the burst token.
	const runs = 3
	const expectedDelay = 250 * time.Millisecond
	const tolerance = 0.30

	for range runs {
		l := New(4, 1)
		require.NoError(t, l.Wait(context.Background()))

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := l.Wait(ctx)
		cancel()
		require.NoError(t, err)

		elapsed := time.Since(start)
		margin := time.Duration(float64(expectedDelay) * tolerance)
		assert.GreaterOrEqual(t, elapsed, expectedDelay-margin)
		assert.LessOrEqual(t, elapsed, expectedDelay+margin)
	}
}
