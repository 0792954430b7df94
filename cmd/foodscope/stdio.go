package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/foodscope/foodscope"
	"github.com/foodscope/foodscope/internal/log"
	"github.com/foodscope/foodscope/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants query the indexed county profiles through the ask
and retrieve tools. Configuration is loaded from environment variables and
the .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	slogger := log.NewLogger(cfg).Slog()

	slogger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

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

	return mcp.NewServer(client.RAG, version, slogger).ServeStdio()
}
