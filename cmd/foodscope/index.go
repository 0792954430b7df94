package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/foodscope/foodscope"
	"github.com/foodscope/foodscope/application/service"
	"github.com/foodscope/foodscope/internal/log"
)

func indexCmd() *cobra.Command {
	var (
		envFile string
		force   bool
		cache   bool
	)

	cmd := &cobra.Command{
		Use:   "index <county-csv> <risk-csv>",
		Short: "Build the county profile index",
		Long: `Build the county profile index from the source files.

The county CSV carries one row per county; the risk CSV annotates the
highest-composite-risk counties. The build renders a profile per county,
embeds the profiles, and writes the paired index artifact and chunk set.
An existing artifact makes the build a no-op unless --force is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(envFile, args[0], args[1], force, cache)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even if an index artifact exists")
	cmd.Flags().BoolVar(&cache, "cache-embeddings", false, "Cache remote embedding responses on disk")

	return cmd
}

func runIndex(envFile, primaryPath, riskPath string, force, cache bool) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	slogger := log.NewLogger(cfg).Slog()

	opts := []foodscope.Option{
		foodscope.WithConfig(cfg),
		foodscope.WithLogger(slogger),
	}
	if cache {
		opts = append(opts, foodscope.WithEmbeddingCache())
	}

	client, err := foodscope.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create foodscope client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close foodscope client", slog.Any("error", err))
		}
	}()

	req := service.NewBuildRequest(primaryPath, riskPath).WithForce(force)
	result, err := client.Builder.Build(context.Background(), req)
	if err != nil {
		return err
	}

	if result.Skipped() {
		fmt.Printf("index artifact already exists at %s (use --force to rebuild)\n", cfg.IndexPath())
		return nil
	}
	fmt.Printf("indexed %d county profiles (dimension %d) at %s\n",
		result.Chunks(), result.Dimension(), cfg.IndexPath())
	return nil
}
