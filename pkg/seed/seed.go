// Package seed derives deterministic, reproducible bootstrap seeds from run
// inputs (spec §4.7), grounded on original_source/heretix/sampler.py's
// seed-derivation helper and exercised by tests/test_phase1_seed.py's
// observed contract: same inputs in any key order yield the same seed, and
// changing any single input changes it.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// Derive computes a deterministic uint64 seed from an arbitrary set of
// named string inputs. Inputs are sorted by key so that callers may pass
// them in any order and still receive the same seed (§4.7 invariant:
// order-invariance).
func Derive(inputs map[string]string) uint64 {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(inputs[k])
		sb.WriteByte('\n')
	}

	h := sha256.Sum256([]byte(sb.String()))
	return binary.BigEndian.Uint64(h[:8])
}

// ForRun derives a seed from the claim text, model alias, prompt version,
// and replicate count only. The RPL runner does not call it: it derives its
// bootstrap seed with Derive over a larger field set (R, B and the sorted
// template hashes as well).
func ForRun(claim, model, promptVersion string, k int) uint64 {
	return Derive(map[string]string{
		"claim":          claim,
		"model":          model,
		"prompt_version": promptVersion,
		"k":              fmt.Sprintf("%d", k),
	})
}

// ForReplicate derives a per-replicate child seed, mixing the run seed with
// the replicate's position so replicates are independent but reproducible.
func ForReplicate(runSeed uint64, index int) uint64 {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], runSeed)
	binary.BigEndian.PutUint64(buf[8:], uint64(index))
	h := sha256.Sum256(buf)
	return binary.BigEndian.Uint64(h[:8])
}
