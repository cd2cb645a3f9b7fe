package wel

import (
	"math"
	"sort"

	"github.com/proofline/proofline/pkg/aggregate"
)

// CombineResult is the output of CombineReplicateProbs: a point estimate,
// its 95% CI, and a dispersion measure used downstream by strength_score.
type CombineResult struct {
	P          float64
	CI95       [2]float64
	Dispersion float64
}

type combineError string

func (e combineError) Error() string { return string(e) }

const errNoReplicates = combineError("wel: no replicate probabilities provided")

// percentile computes the linear-interpolated percentile (0-100), matching
// numpy.percentile's default "linear" method. Duplicated locally rather
// than imported from pkg/aggregate/pkg/stability since each package keeps
// its own small numeric helpers isolated.
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

func stddev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	m := sum / float64(n)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1)) // ddof=1, matching numpy's np.std(..., ddof=1)
}

// CombineReplicateProbs combines per-replicate stance probabilities into a
// single estimate, a 95% CI, and an IQR-based dispersion measure, ported
// from original_source/heretix_wel/aggregate.py's combine_replicates_ps.
// With fewer than two replicates there isn't enough data for a normal
// approximation, so the CI widens to a fixed ±1.0 logit band and
// dispersion reports zero.
func CombineReplicateProbs(replicateProbs []float64) (CombineResult, error) {
	if len(replicateProbs) == 0 {
		return CombineResult{}, errNoReplicates
	}

	logits := make([]float64, len(replicateProbs))
	for i, p := range replicateProbs {
		logits[i] = aggregate.Logit(p)
	}

	var sum float64
	for _, l := range logits {
		sum += l
	}
	centerLogit := sum / float64(len(logits))
	pHat := aggregate.Sigmoid(centerLogit)

	var loLogit, hiLogit, dispersion float64
	if len(logits) >= 2 {
		std := stddev(logits)
		sigma := std / math.Sqrt(float64(len(logits)))
		loLogit = centerLogit - 1.96*sigma
		hiLogit = centerLogit + 1.96*sigma

		sorted := append([]float64(nil), logits...)
		sort.Float64s(sorted)
		dispersion = percentile(sorted, 75) - percentile(sorted, 25)
	} else {
		loLogit = centerLogit - 1.0
		hiLogit = centerLogit + 1.0
		dispersion = 0
	}

	return CombineResult{
		P:          pHat,
		CI95:       [2]float64{aggregate.Sigmoid(loLogit), aggregate.Sigmoid(hiLogit)},
		Dispersion: dispersion,
	}, nil
}
