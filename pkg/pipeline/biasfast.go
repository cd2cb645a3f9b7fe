package pipeline

import (
	"context"
	"sync"

	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/schema"
)

// ModelPair names one (provider, logical_model) combination to score a
// claim against in a bias-fast sweep.
type ModelPair struct {
	Provider string
	Model    string
}

// BiasFastResult pairs one ModelPair with the RunResponse it produced, or
// the error that stopped it — a failure scoring one model does not abort
// the others.
type BiasFastResult struct {
	Pair     ModelPair
	Response schema.RunResponse
	Err      error
}

// biasFastConcurrency caps how many models are scored in flight at once,
// independent of len(pairs). Every pair still gets its own goroutine, but
// at most this many run a pipeline against the rate-limited providers at
// the same time; the rest wait on the semaphore.
const biasFastConcurrency = 4

// RunBiasFast scores the same claim against several models concurrently
// and returns one independent result per pair, unfused — a multi-model
// bias check rather than a single combined estimate. Results are returned
// in pair order regardless of completion order.
func (p *Pipeline) RunBiasFast(ctx context.Context, cfg config.RunConfig, bundle config.PromptBundle, pairs []ModelPair) []BiasFastResult {
	results := make([]BiasFastResult, len(pairs))
	sem := make(chan struct{}, biasFastConcurrency)
	var wg sync.WaitGroup

	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair ModelPair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			runCfg := cfg
			runCfg.Provider = pair.Provider
			runCfg.Model = pair.Model

			resp, err := p.Run(ctx, runCfg, bundle, nil)
			results[i] = BiasFastResult{Pair: pair, Response: resp, Err: err}
		}(i, pair)
	}

	wg.Wait()
	return results
}
