package rpl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/sampler"
)

// Plan is the fully-resolved sampling plan for one RunSingleVersion call,
// computed without issuing any provider calls — used by the CLI's describe
// subcommand (§6 "CLI surface") to preview what a run would do.
type Plan struct {
	TemplateBank     int
	TemplateStage    int
	RotationOffset   int
	ActiveTemplates  []int
	Sequence         []int
	PromptCharLenMax int
	DerivedSeed      uint64
	UniquePrompts    int
}

// PlanSequence resolves the balanced template/replicate schedule and the
// derived bootstrap seed for cfg+bundle without scoring any sample. Its
// derived seed assumes every planned sample validates; a live run whose
// samples fail schema validation non-uniformly may derive a different
// seed when cfg.Seed is unset, since only validated samples' prompt
// hashes feed the derivation there.
func PlanSequence(cfg config.RunConfig, bundle config.PromptBundle) (Plan, error) {
	if len(bundle.Paraphrases) == 0 {
		return Plan{}, fmt.Errorf("rpl: prompt bundle has no paraphrases")
	}

	tBank := len(bundle.Paraphrases)
	tStage := tBank
	if cfg.T != nil {
		tStage = *cfg.T
	}
	if tStage < 1 {
		tStage = 1
	}
	if tStage > tBank {
		tStage = tBank
	}

	tplIndices := sampler.ActiveTemplateIndices(cfg.Claim, cfg.Model, bundle.Version, tBank, tStage)
	seq := sampler.BalancedIndicesWithRotation(tStage, cfg.K, 0)
	offset := sampler.RotationOffset(cfg.Claim, cfg.Model, bundle.Version, tBank)

	fullInstructions := bundle.System + "\n\n" + schemaInstructions
	promptCharMax := 0
	tplHashSet := map[string]struct{}{}
	for _, pidx := range tplIndices {
		userText := composeUserText(bundle, pidx, cfg.Claim)
		plen := len(fullInstructions + "\n\n" + userText)
		if plen > promptCharMax {
			promptCharMax = plen
		}
		h := sha256.Sum256([]byte(fullInstructions + "\n\n" + userText))
		tplHashSet[hex.EncodeToString(h[:])] = struct{}{}
	}
	if cfg.MaxPromptChars != nil && promptCharMax > *cfg.MaxPromptChars {
		return Plan{}, fmt.Errorf("rpl: prompt length %d exceeds max_prompt_chars=%d", promptCharMax, *cfg.MaxPromptChars)
	}

	sortedHashes := make([]string, 0, len(tplHashSet))
	for h := range tplHashSet {
		sortedHashes = append(sortedHashes, h)
	}
	sort.Strings(sortedHashes)

	var runner Runner
	seedVal := runner.resolveSeed(cfg, bundle, sortedHashes)

	return Plan{
		TemplateBank:     tBank,
		TemplateStage:    tStage,
		RotationOffset:   offset,
		ActiveTemplates:  tplIndices,
		Sequence:         seq,
		PromptCharLenMax: promptCharMax,
		DerivedSeed:      seedVal,
		UniquePrompts:    len(sortedHashes),
	}, nil
}
