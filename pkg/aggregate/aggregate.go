// Package aggregate implements the clustered (template-then-replicate)
// logit-space bootstrap described in spec §4.8, ported from
// original_source/heretix/aggregate.py. It uses math/rand/v2 for
// resampling: no statistics/bootstrap library appears anywhere in the
// example pack's non-test Go code, so the resampling loop is hand-rolled
// on the standard library (documented in DESIGN.md).
package aggregate

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Logit maps a probability in (0, 1) to the real line.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Sigmoid maps a real number back to a probability in (0, 1).
func Sigmoid(l float64) float64 {
	return 1 / (1 + math.Exp(-l))
}

// Result is the output of AggregateClustered: a point estimate in logit
// space, a 95% CI in logit space, and diagnostic metadata.
type Result struct {
	CenterLogit float64
	CILoLogit   float64
	CIHiLogit   float64

	NTemplates       int
	CountsByTemplate map[string]int
	ImbalanceRatio   float64
	TemplateIQRLogit float64
	Method           string
}

// TrimmedMean drops the lowest and highest trim-fraction of sorted values
// and averages the remainder; falls back to the plain mean if trimming
// would remove everything.
func TrimmedMean(values []float64, trim float64) float64 {
	if trim >= 0.5 {
		trim = 0.49
	}
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	k := int(float64(n) * trim)
	if 2*k >= n {
		return mean(sorted)
	}
	return mean(sorted[k : n-k])
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// percentile computes the linear-interpolated percentile (0-100),
// matching numpy.percentile's default "linear" method.
func percentile(sorted []float64, pct float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := (pct / 100) * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Center selects the point-estimate function: "trimmed" (default, 20%
// trim) or "mean".
type Center string

const (
	CenterTrimmed Center = "trimmed"
	CenterMean    Center = "mean"
)

// Options configures AggregateClustered. The bootstrap draws from a
// rand/v2 PCG source seeded from Seed, so results are reproducible.
type Options struct {
	B      int
	Center Center
	Trim   float64
	FixedM int // 0 means "use each template's own replicate count"
	Seed   uint64
}

// AggregateClustered runs the two-stage clustered bootstrap of §4.8:
// stage 1 resamples T templates with replacement, stage 2 resamples each
// chosen template's replicate logits with replacement, and the chosen
// center function is applied at both the point-estimate and per-bootstrap
// level. Keys must be stable across calls (iterated in sorted order) so
// results are reproducible for a given seed.
func AggregateClustered(byTemplateLogits map[string][]float64, opts Options) (Result, error) {
	keys := make([]string, 0, len(byTemplateLogits))
	for k := range byTemplateLogits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	T := len(keys)
	if T == 0 {
		return Result{}, errNoTemplates
	}

	if opts.B <= 0 {
		opts.B = 5000
	}
	if opts.Center == "" {
		opts.Center = CenterTrimmed
	}
	if opts.Trim <= 0 {
		opts.Trim = 0.2
	}

	centerFn := func(xs []float64) float64 {
		if opts.Center == CenterMean {
			return mean(xs)
		}
		return TrimmedMean(xs, opts.Trim)
	}

	tplMeans := make([]float64, T)
	for i, k := range keys {
		tplMeans[i] = mean(byTemplateLogits[k])
	}
	ellHat := centerFn(tplMeans)

	sizes := make(map[string]int, T)
	for _, k := range keys {
		if opts.FixedM > 0 {
			sizes[k] = opts.FixedM
		} else {
			sizes[k] = len(byTemplateLogits[k])
		}
	}

	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	rng := rand.New(src)

	dist := make([]float64, opts.B)
	for b := 0; b < opts.B; b++ {
		means := make([]float64, T)
		for i := 0; i < T; i++ {
			k := keys[rng.IntN(T)]
			grp := byTemplateLogits[k]
			m := sizes[k]
			if m > len(grp) {
				m = len(grp)
			}
			resamp := make([]float64, m)
			for j := 0; j < m; j++ {
				resamp[j] = grp[rng.IntN(len(grp))]
			}
			means[i] = mean(resamp)
		}
		dist[b] = centerFn(means)
	}

	sortedDist := append([]float64(nil), dist...)
	sort.Float64s(sortedDist)
	lo := percentile(sortedDist, 2.5)
	hi := percentile(sortedDist, 97.5)
	if lo > ellHat {
		lo = ellHat
	}
	if hi < ellHat {
		hi = ellHat
	}

	counts := make(map[string]int, T)
	minCount, maxCount := -1, -1
	for _, k := range keys {
		c := len(byTemplateLogits[k])
		counts[k] = c
		if minCount == -1 || c < minCount {
			minCount = c
		}
		if c > maxCount {
			maxCount = c
		}
	}
	imbalance := 1.0
	if minCount > 0 {
		imbalance = float64(maxCount) / float64(minCount)
	}

	sortedTplMeans := append([]float64(nil), tplMeans...)
	sort.Float64s(sortedTplMeans)
	iqr := percentile(sortedTplMeans, 75) - percentile(sortedTplMeans, 25)

	method := "equal_by_template_cluster_bootstrap"
	if opts.Center == CenterTrimmed {
		method = "equal_by_template_cluster_bootstrap_trimmed"
	}

	return Result{
		CenterLogit:      ellHat,
		CILoLogit:        lo,
		CIHiLogit:        hi,
		NTemplates:       T,
		CountsByTemplate: counts,
		ImbalanceRatio:   imbalance,
		TemplateIQRLogit: iqr,
		Method:           method,
	}, nil
}

type aggregateError string

func (e aggregateError) Error() string { return string(e) }

const errNoTemplates = aggregateError("aggregate: no templates to aggregate")
