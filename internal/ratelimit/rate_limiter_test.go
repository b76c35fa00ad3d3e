package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBurstThenThrottle(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "third immediate request should exceed the burst")
}

func TestWaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx))
}

func TestUnlimitedWhenDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow())
	}
}

func TestConfigureGlobal(t *testing.T) {
	Configure(600)
	t.Cleanup(func() { Configure(30) })
	assert.NoError(t, WaitForRateLimit(context.Background()))
	assert.True(t, Global().Allow())
}
