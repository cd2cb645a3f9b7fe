// Package ratelimit implements the per-(provider, model) token-bucket rate
// limiter of spec §4.3 on top of golang.org/x/time/rate, whose continuous
// refill rule (min(burst, prev + elapsed*rate)) matches the spec exactly.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TimeoutError is returned when acquiring a token exceeds the caller's
// deadline.
type TimeoutError struct{ Key string }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ratelimit: acquire timed out for %q", e.Key)
}

// Registry is a process-scoped, mutex-guarded map of token buckets keyed by
// "(provider, model)". It is the shared singleton every adapter must
// acquire a token from before issuing an outbound HTTP call (§4.3, §5).
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	defaults struct {
		rps   float64
		burst int
	}
}

// NewRegistry creates a limiter registry with a fallback (rate, burst) used
// for keys that have not been configured explicitly.
func NewRegistry(defaultRatePerSecond float64, defaultBurst int) *Registry {
	r := &Registry{limiters: make(map[string]*rate.Limiter)}
	r.defaults.rps = defaultRatePerSecond
	r.defaults.burst = defaultBurst
	return r
}

func key(provider, model string) string {
	if model == "" {
		model = "*"
	}
	return provider + "::" + model
}

// Configure sets explicit (rate, burst) parameters for one (provider,
// model) pair, creating the bucket full at burst capacity.
func (r *Registry) Configure(provider, model string, ratePerSecond float64, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[key(provider, model)] = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

func (r *Registry) limiterFor(provider, model string) *rate.Limiter {
	k := key(provider, model)
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[k]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(r.defaults.rps), r.defaults.burst)
	r.limiters[k] = l
	return l
}

// Acquire blocks until a token is available for (provider, model), or
// until timeout elapses (zero timeout means wait indefinitely).
func (r *Registry) Acquire(ctx context.Context, provider, model string, timeout time.Duration) error {
	l := r.limiterFor(provider, model)

	if timeout <= 0 {
		return l.Wait(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		return &TimeoutError{Key: key(provider, model)}
	}
	return nil
}
