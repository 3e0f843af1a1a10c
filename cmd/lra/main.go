// Package main is the entry point for the lra CLI, the legal research
// agent. The research subcommand runs one query to completion; serve runs
// the HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/counselflow/legal-research-agent/pkg/caselaw"
	"github.com/counselflow/legal-research-agent/pkg/config"
	"github.com/counselflow/legal-research-agent/pkg/llm"
	"github.com/counselflow/legal-research-agent/pkg/observability"
	"github.com/counselflow/legal-research-agent/pkg/regulation"
	"github.com/counselflow/legal-research-agent/pkg/tools"
	"github.com/counselflow/legal-research-agent/pkg/validation"
	"github.com/counselflow/legal-research-agent/pkg/workflow"

	toolcache "github.com/counselflow/legal-research-agent/pkg/cache"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lra",
	Short: "Agentic legal research over case law and regulations",
	Long: `lra researches legal questions with a local model and real legal
databases. The model works through a fixed set of tools for case-law
search, citation verification, CFR text, deadline arithmetic, and motion
templates; every answer is validated for temporal consistency and
citation accuracy before it is returned.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lra %s (built: %s)\n", Version, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/default.yaml", "path to configuration file")
	rootCmd.AddCommand(researchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// engine bundles the wired components a command needs
type engine struct {
	cfg          *config.Config
	telemetry    *observability.Telemetry
	orchestrator *workflow.Orchestrator
	model        string
}

// buildEngine wires the full research stack from configuration
func buildEngine(ctx context.Context) (*engine, error) {
	cfg := config.LoadOrDefault(configPath)
	observability.SetLogLevel(cfg.Observability.Logging.Level)

	telemetry, err := observability.NewTelemetry(&observability.TelemetryConfig{
		ServiceName:    "legal-research-agent",
		ServiceVersion: Version,
		Environment:    environment(),
		OTLPEndpoint:   cfg.Observability.Tracing.Endpoint,
		PrometheusPort: cfg.Observability.Metrics.Port,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
		EnableTracing:  cfg.Observability.Tracing.Enabled,
		EnableMetrics:  cfg.Observability.Metrics.Enabled,
		EnableLogging:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	llmTimeout, err := cfg.GetDuration(cfg.Ollama.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama timeout: %w", err)
	}
	ollama := llm.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, &llm.Options{
		Temperature: cfg.Ollama.Temperature,
		MaxTokens:   cfg.Ollama.MaxTokens,
		TopP:        cfg.Ollama.TopP,
		Timeout:     llmTimeout,
	})
	if err := ollama.CheckHealth(ctx); err != nil {
		return nil, fmt.Errorf("ollama health check failed: %w", err)
	}

	completion, err := llm.NewInstrumentedClient(ollama, telemetry, cfg.Ollama.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to instrument completion client: %w", err)
	}

	var caselawOpts []caselaw.Option
	if cfg.CaseLaw.BaseURL != "" {
		caselawOpts = append(caselawOpts, caselaw.WithBaseURL(cfg.CaseLaw.BaseURL))
	}
	if cfg.CaseLaw.MaxResults > 0 {
		caselawOpts = append(caselawOpts, caselaw.WithMaxResults(cfg.CaseLaw.MaxResults))
	}
	caselawClient := caselaw.NewClient(cfg.CaseLaw.APIToken, caselawOpts...)

	var regulationOpts []regulation.Option
	if cfg.Regulation.BaseURL != "" {
		regulationOpts = append(regulationOpts, regulation.WithBaseURL(cfg.Regulation.BaseURL))
	}
	regulationClient := regulation.NewClient(regulationOpts...)

	verifier := validation.NewCitationChecker(caselawClient)

	registry, err := tools.NewDefaultRegistry(tools.Deps{
		CaseLaw:    caselawClient,
		Regulation: regulationClient,
		Verifier:   verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	resultCache, err := toolcache.New(cfg.Cache.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool cache: %w", err)
	}

	metrics, err := observability.NewMetrics(telemetry.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	dispatcher := tools.NewDispatcher(registry, resultCache)
	dispatcher.SetTelemetry(telemetry)
	dispatcher.SetMetrics(metrics)
	dispatcher.SetLogger(observability.NewStructuredLogger("dispatcher"))

	callTimeout, err := cfg.GetDuration(cfg.Research.CallTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid call_timeout: %w", err)
	}
	sessionTimeout, err := cfg.GetDuration(cfg.Research.SessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid session_timeout: %w", err)
	}

	orchestrator, err := workflow.NewOrchestrator(&workflow.Config{
		MaxRounds:      cfg.Research.MaxRounds,
		CallTimeout:    callTimeout,
		SessionTimeout: sessionTimeout,
		Model:          cfg.Ollama.Model,
	}, completion, dispatcher, caselawClient, verifier)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if err := orchestrator.SetTelemetry(telemetry); err != nil {
		return nil, fmt.Errorf("failed to attach telemetry: %w", err)
	}

	return &engine{
		cfg:          cfg,
		telemetry:    telemetry,
		orchestrator: orchestrator,
		model:        cfg.Ollama.Model,
	}, nil
}

// shutdown flushes telemetry before exit
func (e *engine) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.telemetry.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}

func environment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
