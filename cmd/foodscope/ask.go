package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/foodscope/foodscope"
	"github.com/foodscope/foodscope/internal/log"
)

func askCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question from the command line",
		Long: `Ask a question about county food environments and health.

The answer is grounded in the indexed county profiles; run 'foodscope index'
first. Sources are listed with their similarity to the question.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(envFile, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runAsk(envFile, question string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	slogger := log.NewLogger(cfg).Slog()

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

	answer, err := client.RAG.Ask(context.Background(), question)
	if err != nil {
		return err
	}

	fmt.Println(answer.Text())
	fmt.Println()
	fmt.Println("Sources:")
	for _, src := range answer.Sources() {
		marker := ""
		if src.HighRisk() {
			marker = " [high risk]"
		}
		fmt.Printf("  %.3f  %s, %s%s\n", src.Similarity(), src.County(), src.State(), marker)
	}
	return nil
}
