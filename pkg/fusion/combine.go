package fusion

import "github.com/proofline/proofline/pkg/schema"

// Inputs bundles everything Combine needs to produce a fused response
// block: the prior (RPL) estimate, an optional web (WEL) estimate, and the
// signals that drive the blend weight.
type Inputs struct {
	Prior          schema.PriorBlock
	Web            *schema.WebBlock
	ClaimIsTimely  bool
	MedianAgeDays  float64
	NDocs          int
	NDomains       int
	Dispersion     float64
	JSONValidRate  float64
	TauDays        float64
}

// Combine fuses a prior estimate with an optional web estimate into a
// schema.CombinedBlock, following original_source/heretix/pipeline.py's
// combination step: without a web estimate the combined block is just the
// prior; with one, the two are blended in logit space with a
// recency/strength-derived weight, or pinned directly when the web block
// carries a deterministic resolution.
func Combine(in Inputs) schema.CombinedBlock {
	if in.Web == nil {
		return schema.CombinedBlock{
			P:           in.Prior.P,
			CI95:        in.Prior.CI95,
			Label:       schema.LabelFor(in.Prior.P),
			WeightPrior: 1.0,
			WeightWeb:   0.0,
		}
	}

	if in.Web.Resolved {
		return schema.CombinedBlock{
			P:             in.Web.P,
			CI95:          in.Web.CI95,
			Label:         schema.LabelFor(in.Web.P),
			WeightPrior:   0.0,
			WeightWeb:     1.0,
			Resolved:      true,
			ResolvedTruth: in.Web.ResolvedTruth,
		}
	}

	r := RecencyScore(in.ClaimIsTimely, in.MedianAgeDays, in.TauDays)
	s := StrengthScore(in.NDocs, in.NDomains, in.Dispersion, in.JSONValidRate)
	w := WebWeight(r, s, 0, 0)

	p, ci := FuseProbabilities(in.Prior.P, in.Prior.CI95, in.Web.P, in.Web.CI95, w)

	return schema.CombinedBlock{
		P:           p,
		CI95:        ci,
		Label:       schema.LabelFor(p),
		WeightPrior: 1.0 - w,
		WeightWeb:   w,
	}
}
