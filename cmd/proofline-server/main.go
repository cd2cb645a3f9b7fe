// Command proofline-server hosts pkg/httpapi: POST /checks/run, GET
// /healthz, and GET /metrics. Wiring follows blackcoderx-falcon's
// cmd/falcon/main.go cobra+viper+godotenv pattern, generalized from a
// terminal-first app with an embedded web UI to a standalone API
// process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/proofline/proofline/pkg/httpapi"
	"github.com/proofline/proofline/pkg/pipeline"
	"github.com/proofline/proofline/pkg/provider"
	"github.com/proofline/proofline/pkg/ratelimit"
	"github.com/proofline/proofline/pkg/retrieval"
	"github.com/proofline/proofline/pkg/samplecache"
	"github.com/proofline/proofline/pkg/store"
	"github.com/proofline/proofline/pkg/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "proofline-server",
		Short: "Serve the probability-estimation HTTP API",
		RunE:  serve,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: proofline-server.yaml in the working directory)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("proofline-server %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("proofline-server")
	}
	viper.SetEnvPrefix("PROOFLINE")
	viper.AutomaticEnv()

	viper.SetDefault("addr", ":8080")
	viper.SetDefault("prompts_dir", "prompts")
	viper.SetDefault("artifact_backend", "local")
	viper.SetDefault("artifact_path", "runs/artifacts")
	viper.SetDefault("sample_cache.front_max_items", 4096)
	viper.SetDefault("sample_cache.front_ttl_seconds", 900)
	viper.SetDefault("rate_limit.default_rps", 2.0)
	viper.SetDefault("rate_limit.default_burst", 4)

	_ = viper.ReadInConfig()
}

func serve(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	capabilities := provider.NewCapabilitiesStore()
	if dir := viper.GetString("capabilities_dir"); dir != "" {
		if err := capabilities.LoadDir(dir); err != nil {
			return fmt.Errorf("proofline-server: load provider capabilities: %w", err)
		}
		logger.Info().Str("dir", dir).Msg("loaded provider capability files")
	}

	reg := provider.NewRegistry()
	_ = reg.Register(provider.ScoreMock, provider.MockAlias)
	if key := viper.GetString("anthropic_api_key"); key != "" {
		client := provider.NewAnthropicClient(key, viper.GetString("anthropic_model"))
		if err := provider.RegisterAnthropic(reg, client); err != nil {
			return fmt.Errorf("proofline-server: register anthropic adapter: %w", err)
		}
	}
	if key := viper.GetString("openai_api_key"); key != "" {
		client := provider.NewOpenAICompatClient(key, viper.GetString("openai_base_url"), viper.GetString("openai_model"))
		if err := provider.RegisterOpenAICompat(reg, client); err != nil {
			return fmt.Errorf("proofline-server: register openai adapter: %w", err)
		}
	}
	if key := viper.GetString("gemini_api_key"); key != "" {
		client, err := provider.NewGeminiClient(context.Background(), key, viper.GetString("gemini_model"))
		if err != nil {
			return fmt.Errorf("proofline-server: build gemini client: %w", err)
		}
		if err := provider.RegisterGemini(reg, client); err != nil {
			return fmt.Errorf("proofline-server: register gemini adapter: %w", err)
		}
	}

	var backend samplecache.Backend
	if addr := viper.GetString("redis_addr"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: viper.GetString("redis_password"), DB: viper.GetInt("redis_db")})
		backend = samplecache.NewRedisBackend(rdb, "proofline:sample:")
		logger.Info().Str("addr", addr).Msg("sample cache backed by redis")
	}
	sampleCache := samplecache.New(
		viper.GetInt("sample_cache.front_max_items"),
		time.Duration(viper.GetInt("sample_cache.front_ttl_seconds"))*time.Second,
		backend,
		24*time.Hour,
	)
	runCache := samplecache.New(1024, 5*time.Minute, nil, 0)

	limiter := ratelimit.NewRegistry(viper.GetFloat64("rate_limit.default_rps"), viper.GetInt("rate_limit.default_burst"))

	artifactStore, err := store.NewArtifactStore(viper.GetString("artifact_backend"), viper.GetString("artifact_path"))
	if err != nil {
		return fmt.Errorf("proofline-server: build artifact store: %w", err)
	}

	var audit pipeline.AuditRecorder
	if dsn := viper.GetString("audit_dsn"); dsn != "" {
		auditStore, err := store.NewAuditStore(cmd.Context(), dsn)
		if err != nil {
			return fmt.Errorf("proofline-server: connect audit store: %w", err)
		}
		if err := auditStore.EnsureSchema(cmd.Context()); err != nil {
			return fmt.Errorf("proofline-server: ensure audit schema: %w", err)
		}
		defer auditStore.Close()
		audit = auditStore
	}

	rec := telemetry.New()

	var retriever retrieval.Retriever = retrieval.MockRetriever{}
	if key := viper.GetString("tavily_api_key"); key != "" {
		retriever = retrieval.NewTavilyRetriever(key)
		logger.Info().Msg("web retrieval backed by tavily")
	}

	p := pipeline.New(reg, sampleCache, limiter,
		pipeline.WithRunCache(runCache),
		pipeline.WithRetriever(retriever),
		pipeline.WithArtifactStore(artifactStore),
		pipeline.WithAudit(audit),
		pipeline.WithLogger(logger),
		pipeline.WithTelemetry(rec),
	)

	srv := &httpapi.Server{
		Pipeline:   p,
		PromptsDir: viper.GetString("prompts_dir"),
		Logger:     logger,
		Telemetry:  rec,
	}

	addr, shutdown, err := srv.Start(viper.GetString("addr"))
	if err != nil {
		return err
	}
	logger.Info().Str("addr", addr).Msg("proofline-server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	shutdown()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
