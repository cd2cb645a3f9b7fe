// Package config loads the two YAML-shaped inputs an RPL run needs: a
// RunConfig (claim, model, sampling plan) and a PromptBundle (system text,
// user template, paraphrase bank). Ported from
// original_source/heretix/config.py's RunConfig/load_run_config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RunConfig is the full set of knobs for one RPL run, mirroring
// heretix/config.py's RunConfig dataclass field-for-field.
type RunConfig struct {
	Claim           string `yaml:"claim"`
	Model           string `yaml:"model"`
	Provider        string `yaml:"provider"`
	Mode            string `yaml:"mode"`
	PromptVersion   string `yaml:"prompt_version"`
	K               int    `yaml:"K"`
	R               int    `yaml:"R"`
	T               *int   `yaml:"T"`
	B               int    `yaml:"B"`
	Seed            *int64 `yaml:"seed"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	MaxPromptChars  *int   `yaml:"max_prompt_chars"`
	NoCache         bool   `yaml:"no_cache"`
	Mock            bool   `yaml:"mock"`
	PromptsFile     string `yaml:"prompts_file"`

	// Derived at load time; not part of the YAML input.
	PromptFilePath string `yaml:"-"`
}

// Mode is the closed set RunConfig.Mode must take (§3 "RunConfig").
const (
	ModeBaseline    = "baseline"
	ModeWebInformed = "web_informed"
)

// DefaultRunConfig returns a RunConfig pre-filled with heretix's defaults.
func DefaultRunConfig(claim string) RunConfig {
	return RunConfig{
		Claim:           claim,
		Model:           "gpt-5",
		Provider:        "openai",
		Mode:            ModeBaseline,
		PromptVersion:   "rpl_g5_v2",
		K:               8,
		R:               2,
		B:               5000,
		MaxOutputTokens: 1024,
	}
}

// LoadRunConfig reads a YAML run-config file, applies HERETIX_RPL_SEED /
// HERETIX_RPL_NO_CACHE-equivalent env overrides (renamed to the PROOFLINE_
// prefix for this module), and resolves the prompt bundle's file path.
func LoadRunConfig(path, promptsDir string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("config: failed to read run config %s: %w", path, err)
	}

	cfg := DefaultRunConfig("")
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: failed to parse run config %s: %w", path, err)
	}

	if v := os.Getenv("PROOFLINE_RPL_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = &seed
		}
	}
	if os.Getenv("PROOFLINE_RPL_NO_CACHE") != "" {
		cfg.NoCache = true
	}

	if cfg.PromptsFile != "" {
		cfg.PromptFilePath = cfg.PromptsFile
	} else {
		cfg.PromptFilePath = filepath.Join(promptsDir, cfg.PromptVersion+".yaml")
	}

	return cfg, nil
}

// PromptBundle is the on-disk prompt definition for one prompt_version:
// system instructions, a user template, and a bank of paraphrases.
type PromptBundle struct {
	Version      string   `yaml:"version"`
	System       string   `yaml:"system"`
	UserTemplate string   `yaml:"user_template"`
	Paraphrases  []string `yaml:"paraphrases"`
}

// LoadPromptBundle reads and validates a prompt YAML file, matching
// rpl.py's _load_prompts: all four keys are required, and an empty
// paraphrase bank is rejected.
func LoadPromptBundle(path string) (PromptBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PromptBundle{}, fmt.Errorf("config: failed to read prompt file %s: %w", path, err)
	}
	var bundle PromptBundle
	if err := yaml.Unmarshal(raw, &bundle); err != nil {
		return PromptBundle{}, fmt.Errorf("config: failed to parse prompt file %s: %w", path, err)
	}
	if bundle.Version == "" || bundle.System == "" || bundle.UserTemplate == "" {
		return PromptBundle{}, fmt.Errorf("config: prompt file %s missing required keys (version/system/user_template)", path)
	}
	if len(bundle.Paraphrases) == 0 {
		return PromptBundle{}, fmt.Errorf("config: prompt file %s has no paraphrases", path)
	}
	return bundle, nil
}
