// Command proofline is the standalone CLI for running one probability
// estimation outside the HTTP API, grounded on blackcoderx-falcon's
// cobra+viper+godotenv rootCmd wiring (cmd/falcon/main.go) but stripped of
// its TUI/web-UI/request-replay machinery, which this module has no use
// for.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/proofline/proofline/pkg/config"
	"github.com/proofline/proofline/pkg/pipeline"
	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/ratelimit"
	"github.com/proofline/proofline/pkg/retrieval"
	"github.com/proofline/proofline/pkg/rpl"
	"github.com/proofline/proofline/pkg/samplecache"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile       string
	promptsDir    string
	outPath       string
	mockRun       bool
	dryRun        bool
	modeOverride  string
	promptVersion string

	rootCmd = &cobra.Command{
		Use:   "proofline",
		Short: "Estimate the probability that a claim is true",
		Long: `proofline runs the Raw Prior Lens and, optionally, the Web-Evidence
Lens over a claim and reports a calibrated probability with a stability
band and confidence interval.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "run config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&promptsDir, "prompts-dir", "prompts", "directory containing prompt version YAML files")

	runCmd.Flags().StringVar(&outPath, "out", "", "write the run response JSON to this path (default: stdout)")
	runCmd.Flags().BoolVar(&mockRun, "mock", false, "use the deterministic mock provider instead of a live model")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resolved run config and exit without scoring")
	runCmd.Flags().StringVar(&modeOverride, "mode", "", "override the run config's mode (baseline|web_informed)")
	runCmd.Flags().StringVar(&promptVersion, "prompt-version", "", "override the run config's prompt_version")

	rootCmd.AddCommand(runCmd, describeCmd, versionCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}
	viper.SetEnvPrefix("PROOFLINE")
	viper.AutomaticEnv()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("proofline %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one probability estimation and print the response",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			return fmt.Errorf("proofline run: --config is required")
		}
		cfg, err := config.LoadRunConfig(cfgFile, promptsDir)
		if err != nil {
			return err
		}
		if modeOverride != "" {
			cfg.Mode = modeOverride
		}
		if promptVersion != "" {
			cfg.PromptVersion = promptVersion
			cfg.PromptFilePath = filepath.Join(promptsDir, cfg.PromptVersion+".yaml")
		}
		if mockRun {
			cfg.Mock = true
		}

		bundle, err := config.LoadPromptBundle(cfg.PromptFilePath)
		if err != nil {
			return err
		}

		if dryRun {
			plan, err := rpl.PlanSequence(cfg, bundle)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, map[string]any{
				"claim":            cfg.Claim,
				"mode":             cfg.Mode,
				"sampling":         map[string]any{"K": cfg.K, "R": cfg.R, "T": plan.TemplateStage},
				"rotation_offset":  plan.RotationOffset,
				"active_templates": plan.ActiveTemplates,
				"sequence":         plan.Sequence,
				"derived_seed":     plan.DerivedSeed,
				"prompt_char_max":  plan.PromptCharLenMax,
			})
		}

		registry := buildRegistry(cfg.Mock)
		cache := samplecache.New(2048, 10*time.Minute, nil, 0)
		limiter := ratelimit.NewRegistry(2.0, 4)
		p := pipeline.New(registry, cache, limiter,
			pipeline.WithRetriever(retrieval.MockRetriever{}),
			pipeline.WithLogger(zerolog.New(os.Stderr).With().Timestamp().Logger()),
		)

		resp, err := p.Run(cmd.Context(), cfg, bundle, nil)
		if err != nil {
			return err
		}

		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("proofline run: failed to open --out path: %w", err)
			}
			defer f.Close()
			return printJSON(f, resp)
		}
		return printJSON(os.Stdout, resp)
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the balanced sampling plan for a run config without scoring anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			return fmt.Errorf("proofline describe: --config is required")
		}
		cfg, err := config.LoadRunConfig(cfgFile, promptsDir)
		if err != nil {
			return err
		}
		if promptVersion != "" {
			cfg.PromptVersion = promptVersion
			cfg.PromptFilePath = filepath.Join(promptsDir, cfg.PromptVersion+".yaml")
		}

		bundle, err := config.LoadPromptBundle(cfg.PromptFilePath)
		if err != nil {
			return err
		}

		plan, err := rpl.PlanSequence(cfg, bundle)
		if err != nil {
			return err
		}

		return printJSON(os.Stdout, map[string]any{
			"claim":            cfg.Claim,
			"prompt_version":   cfg.PromptVersion,
			"template_bank":    plan.TemplateBank,
			"template_stage":   plan.TemplateStage,
			"rotation_offset":  plan.RotationOffset,
			"active_templates": plan.ActiveTemplates,
			"sequence":         plan.Sequence,
			"unique_prompts":   plan.UniquePrompts,
			"derived_seed":     plan.DerivedSeed,
			"prompt_char_max":  plan.PromptCharLenMax,
		})
	},
}

// buildRegistry registers every locally-available provider adapter; when
// mock is true it registers only the deterministic mock scorer, under every
// alias a live adapter would otherwise claim, so a run config written
// against a live model name still resolves. When mock is false the mock
// scorer is registered only under its own alias, and each live adapter
// only when its API key is set in the environment.
func buildRegistry(mock bool) *provider.Registry {
	reg := provider.NewRegistry()
	if mock {
		_ = reg.Register(provider.ScoreMock, provider.MockAlias)
		_ = reg.Register(provider.ScoreMock, provider.OpenAICompatAliases...)
		_ = reg.Register(provider.ScoreMock, provider.AnthropicAliases...)
		_ = reg.Register(provider.ScoreMock, provider.GeminiAliases...)
		return reg
	}

	_ = reg.Register(provider.ScoreMock, provider.MockAlias)
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		client := provider.NewAnthropicClient(key, "claude-opus-4")
		_ = provider.RegisterAnthropic(reg, client)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		client := provider.NewOpenAICompatClient(key, "", "gpt-5")
		_ = provider.RegisterOpenAICompat(reg, client)
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if client, err := provider.NewGeminiClient(context.Background(), key, "gemini-2.5-pro"); err == nil {
			_ = provider.RegisterGemini(reg, client)
		}
	}
	return reg
}

func printJSON(w *os.File, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
