package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireWithinBurstIsImmediate(t *testing.T) {
	reg := NewRegistry(10, 5)
	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, reg.Acquire(context.Background(), "openai", "gpt-5", 0))
	}
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestAcquireBackpressureForcesWait(t *testing.T) {
	reg := NewRegistry(1, 1)
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.Acquire(context.Background(), "openai", "gpt-5", 5*time.Second)
		}()
	}
	wg.Wait()
	// 4 calls at 1 token/sec with burst 1: first is free, remaining 3 cost
	// roughly 1s each, so total wall time should be close to 3s.
	assert.GreaterOrEqual(t, time.Since(start), 2500*time.Millisecond)
}

func TestAcquireTimeoutReturnsTimeoutError(t *testing.T) {
	reg := NewRegistry(0.1, 1)
	require.NoError(t, reg.Acquire(context.Background(), "x", "y", 0))
	err := reg.Acquire(context.Background(), "x", "y", 50*time.Millisecond)
	require.Error(t, err)
	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)
}

func TestConfigurePerProviderModel(t *testing.T) {
	reg := NewRegistry(1000, 1000)
	reg.Configure("openai", "gpt-5", 1, 1)
	require.NoError(t, reg.Acquire(context.Background(), "openai", "gpt-5", 0))
	err := reg.Acquire(context.Background(), "openai", "gpt-5", 10*time.Millisecond)
	assert.Error(t, err)

	// A different model uses the (generous) default bucket and is unaffected.
	require.NoError(t, reg.Acquire(context.Background(), "openai", "gpt-4", 0))
}
