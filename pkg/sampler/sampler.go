// Package sampler builds the deterministic balanced template-index
// sequence with rotation described in spec §4.6, ported line-for-line from
// original_source/heretix/sampler.py.
package sampler

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// RotationOffset is a pure function of (claim, model, promptVersion,
// tBank) returning a value in [0, tBank).
func RotationOffset(claim, model, promptVersion string, tBank int) int {
	if tBank <= 0 {
		return 0
	}
	h := sha256.Sum256([]byte(claim + "|" + model + "|" + promptVersion))
	prefix := hex.EncodeToString(h[:])[:8]
	var v uint32
	b, _ := hex.DecodeString(prefix)
	v = binary.BigEndian.Uint32(b)
	return int(v) % tBank
}

// BalancedIndicesWithRotation builds a length-K sequence of template
// indices in [0, T), rotated left by offset, with counts as equal as
// possible (§4.6 step 2).
func BalancedIndicesWithRotation(t, k, offset int) []int {
	if t <= 0 || k <= 0 {
		return nil
	}
	order := make([]int, t)
	for i := range order {
		order[i] = i
	}
	if t > 1 {
		rot := ((offset % t) + t) % t
		if rot != 0 {
			order = append(order[rot:], order[:rot]...)
		}
	}

	per := k / t
	rem := k % t
	seq := make([]int, 0, k)
	for i, idx := range order {
		reps := per
		if i < rem {
			reps++
		}
		for j := 0; j < reps; j++ {
			seq = append(seq, idx)
		}
	}
	return seq
}

// PlannedCounts tallies occurrences of each template index in order and
// returns the imbalance ratio max(count)/min(count) across nonzero
// template counts (1.0 if evenly divisible).
func PlannedCounts(order []int, t int) ([]int, float64) {
	counts := make([]int, t)
	for _, idx := range order {
		if idx >= 0 && idx < t {
			counts[idx]++
		}
	}
	var nonzero []int
	for _, c := range counts {
		if c > 0 {
			nonzero = append(nonzero, c)
		}
	}
	if len(nonzero) == 0 {
		return counts, 1.0
	}
	cmax, cmin := nonzero[0], nonzero[0]
	for _, c := range nonzero {
		if c > cmax {
			cmax = c
		}
		if c < cmin {
			cmin = c
		}
	}
	if cmin == 0 {
		return counts, 0
	}
	return counts, float64(cmax) / float64(cmin)
}

// ActiveTemplateIndices rotates [0, tBank) by RotationOffset and returns the
// first tStage indices — the template set actually sampled this run.
func ActiveTemplateIndices(claim, model, promptVersion string, tBank, tStage int) []int {
	if tBank <= 0 {
		return nil
	}
	if tStage < 1 {
		tStage = 1
	}
	if tStage > tBank {
		tStage = tBank
	}
	order := make([]int, tBank)
	for i := range order {
		order[i] = i
	}
	off := RotationOffset(claim, model, promptVersion, tBank)
	if tBank > 1 && off%tBank != 0 {
		rot := off % tBank
		order = append(order[rot:], order[:rot]...)
	}
	return order[:tStage]
}
