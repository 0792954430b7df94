package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foodscope/foodscope"
	"github.com/foodscope/foodscope/infrastructure/api"
	"github.com/foodscope/foodscope/internal/config"
	"github.com/foodscope/foodscope/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                        Server host to bind to (default: 0.0.0.0)
  PORT                        Server port to listen on (default: 8080)
  DATA_DIR                    Data directory (default: .foodscope)
  DB_URL                      Database URL (default: sqlite:///{data_dir}/foodscope.db)
  INDEX_PATH                  Index artifact path (default: {data_dir}/index.json)
  MODEL_DIR                   Local embedding model directory (default: {data_dir}/models)
  TOP_K                       Profiles grounding each answer (default: 10)
  LOG_LEVEL                   Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                  Log format: pretty, json (default: pretty)

  EMBEDDING_ENDPOINT_*        Remote embedding service configuration
    BASE_URL                  Base URL (e.g., https://api.openai.com/v1)
    MODEL                     Model identifier (e.g., text-embedding-3-small)
    API_KEY                   API key for authentication
    TIMEOUT                   Request timeout in seconds (default: 30)
    MAX_RETRIES               Retry attempts (default: 3)

  GENERATION_ENDPOINT_*       Text generation service configuration
    (same fields, plus MAX_TOKENS and TEMPERATURE)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if host != "" {
		cfg = cfg.Apply(config.WithHost(host))
	}
	if port > 0 {
		cfg = cfg.Apply(config.WithPort(port))
	}

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	slogger.LogAttrs(context.Background(), slog.LevelInfo, "starting foodscope", attrs...)

	client, err := foodscope.New(
		foodscope.WithConfig(cfg),
		foodscope.WithLogger(slogger),
	)
	if err != nil {
		return fmt.Errorf("failed to create foodscope client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close foodscope client", slog.Any("error", err))
		}
	}()

	// Warm up the pipeline before accepting traffic. Degradation is logged
	// and reported via /health; the server still comes up.
	if err := client.RAG.Initialize(context.Background()); err != nil {
		slogger.Warn("service starting degraded", slog.Any("error", err))
	}

	server := api.NewServer(client)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		slogger.Info("received signal, shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
