package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lexcodex/analyst/agents"
	"github.com/lexcodex/analyst/framework"
	"github.com/lexcodex/analyst/llm"
	"github.com/lexcodex/analyst/orchestrator"
	"github.com/lexcodex/analyst/server"
)

var (
	flagConfig        string
	flagModel         string
	flagPlannerModel  string
	flagBaseURL       string
	flagDebugLLM      bool
	flagTelemetryFile string
)

func main() {
	// Credentials live in the environment; a local .env is a convenience,
	// not a requirement.
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "analyst",
		Short: "Plan-driven data analysis over scraped web data",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", envOrDefault("ANALYST_CONFIG", ""), "Path to YAML config file")
	root.PersistentFlags().StringVar(&flagModel, "model", "", "Model for query generation and text analysis")
	root.PersistentFlags().StringVar(&flagPlannerModel, "planner-model", "", "Model for plan generation")
	root.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "OpenAI-compatible endpoint (overrides OPENAI_BASE_URL)")
	root.PersistentFlags().BoolVar(&flagDebugLLM, "debug-llm", false, "Log model request/response payloads")
	root.PersistentFlags().StringVar(&flagTelemetryFile, "telemetry-file", "", "Append NDJSON telemetry events to this file")

	root.AddCommand(newServeCmd(), newRunCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRuntimeConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := log.New(os.Stdout, "analyst ", log.LstdFlags)
			orc, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}
			api := &server.APIServer{Runner: orc, Logger: logger}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.Printf("Starting API server on %s (model=%s planner=%s)\n", cfg.Addr, cfg.Model, cfg.PlannerModel)
			return api.Serve(ctx, cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <questions-file>",
		Short: "Execute one request from a questions file and print the result JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRuntimeConfig()
			if err != nil {
				return err
			}

			prompt, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			logger := log.New(os.Stderr, "analyst ", log.LstdFlags)
			orc, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			results, err := orc.Run(cmd.Context(), string(prompt))
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}
}

// loadRuntimeConfig layers the YAML file, environment, and flags.
func loadRuntimeConfig() (*framework.Config, error) {
	cfg, err := framework.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagPlannerModel != "" {
		cfg.PlannerModel = flagPlannerModel
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagDebugLLM {
		cfg.DebugLLM = true
	}
	if flagTelemetryFile != "" {
		cfg.TelemetryFile = flagTelemetryFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildOrchestrator wires the providers around the shared model client.
func buildOrchestrator(cfg *framework.Config, logger *log.Logger) (*orchestrator.Orchestrator, error) {
	var telemetry framework.Telemetry = framework.LogTelemetry{Logger: logger}
	if cfg.TelemetryFile != "" {
		fileSink, err := framework.NewJSONFileTelemetry(cfg.TelemetryFile)
		if err != nil {
			return nil, err
		}
		telemetry = framework.MultiplexTelemetry{Sinks: []framework.Telemetry{
			framework.LogTelemetry{Logger: logger},
			fileSink,
		}}
	}

	client := llm.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	client.Debug = cfg.DebugLLM
	model := llm.NewInstrumentedModel(client, telemetry)

	return &orchestrator.Orchestrator{
		Planner:    orchestrator.NewPlanner(model, cfg.PlannerModel),
		Scraper:    agents.NewScraper(cfg.ScrapeTimeout, logger),
		Analyzer:   agents.NewAnalyzer(model, cfg.Model, cfg.MaxTextChars, logger),
		Visualizer: agents.NewVisualizer(logger),
		Telemetry:  telemetry,
		Logger:     logger,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
