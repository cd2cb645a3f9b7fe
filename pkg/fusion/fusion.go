// Package fusion blends a model-only ("prior"/RPL) probability estimate
// with a web-evidence ("WEL") estimate into one combined probability and
// confidence interval, weighting the blend by how timely the claim is and
// how strong the web evidence is. Ported from
// original_source/heretix_wel/weights.py.
package fusion

import (
	"math"
)

// Clamp01 clamps a value to the closed unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

const logitEps = 1e-6

// Logit maps a probability to the real line, clamping away from the
// boundary so the transform never diverges.
func Logit(p float64) float64 {
	p = Clamp01(p)
	if p < logitEps {
		p = logitEps
	}
	if p > 1-logitEps {
		p = 1 - logitEps
	}
	return math.Log(p / (1 - p))
}

// Sigmoid maps a real number back to a probability in (0, 1).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// DefaultTauDays is the recency decay constant (the age at which document
// freshness has fallen to 1/e) used when none is supplied.
const DefaultTauDays = 7.0

// RecencyScore blends whether the claim itself reads as timely with how
// fresh the retrieved document set is, favoring fresh web evidence for
// claims that plausibly changed recently.
func RecencyScore(claimIsTimely bool, medianAgeDays, tauDays float64) float64 {
	if tauDays <= 0 {
		tauDays = DefaultTauDays
	}
	rClaim := 0.0
	if claimIsTimely {
		rClaim = 1.0
	}
	age := medianAgeDays
	if age < 0 {
		age = 0
	}
	rDocs := math.Exp(-age / tauDays)
	return Clamp01(0.3*rClaim + 0.7*rDocs)
}

// StrengthScore combines document coverage, domain diversity, and
// cross-replicate agreement into a single "how much should we trust the
// web evidence" score, scaled down when the judge's JSON output wasn't
// reliably valid.
func StrengthScore(nDocs, nDomains int, dispersion, jsonValidRate float64) float64 {
	if jsonValidRate == 0 {
		jsonValidRate = 1.0
	}
	coverage := 1.0 - math.Exp(-float64(max(nDocs, 0))/12.0)
	diversity := math.Min(1.0, float64(max(nDomains, 0))/6.0)
	if dispersion < 0 {
		dispersion = 0
	}
	agreement := 1.0 - math.Min(1.0, dispersion/0.25)
	base := 0.5*coverage + 0.3*diversity + 0.2*agreement
	return Clamp01(base * Clamp01(jsonValidRate))
}

// WebWeight turns recency and strength scores into the blend weight given
// to the web estimate, clamped to [wmin, wmax] so the prior estimate is
// never fully discarded or fully ignored.
func WebWeight(r, s, wmin, wmax float64) float64 {
	if wmin == 0 && wmax == 0 {
		wmin, wmax = 0.20, 0.90
	}
	w := 0.6*Clamp01(r) + 0.4*Clamp01(s)
	if w < wmin {
		return wmin
	}
	if w > wmax {
		return wmax
	}
	return w
}

// VarFromCIProb recovers the logit-space variance implied by a 95% CI
// expressed in probability space.
func VarFromCIProb(loP, hiP float64) float64 {
	loL := Logit(loP)
	hiL := Logit(hiP)
	sigma := (hiL - loL) / (2.0 * 1.96)
	if sigma < 0 {
		sigma = 0
	}
	return sigma * sigma
}

// FuseProbabilities combines a prior estimate and a web estimate (each
// with its own 95% CI) in logit space, weighting the web estimate by w and
// propagating variance from both inputs' CIs into the fused CI.
func FuseProbabilities(priorP float64, priorCI [2]float64, webP float64, webCI [2]float64, w float64) (float64, [2]float64) {
	lp := Logit(priorP)
	lw := Logit(webP)
	vp := VarFromCIProb(priorCI[0], priorCI[1])
	vw := VarFromCIProb(webCI[0], webCI[1])
	weight := Clamp01(w)

	lPost := (1.0-weight)*lp + weight*lw
	vPost := (1.0-weight)*(1.0-weight)*vp + weight*weight*vw
	sigma := math.Sqrt(math.Max(vPost, 0))

	loL := lPost - 1.96*sigma
	hiL := lPost + 1.96*sigma
	return Sigmoid(lPost), [2]float64{Sigmoid(loL), Sigmoid(hiL)}
}
