// Package main is the entry point for the foodscope CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foodscope/foodscope/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foodscope",
		Short: "County food-environment question answering",
		Long:  `Foodscope answers questions about U.S. county food environments and health, grounded in an index of deterministic county profiles.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(indexCmd())
	cmd.AddCommand(askCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from the .env file and environment
// variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
