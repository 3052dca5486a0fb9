package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/cooknet"
	"github.com/aretw0/cooknet/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "cooknet",
	Short: "CookNet is a conversational recipe-sharing bot",
	Long: `CookNet lets Telegram users submit recipes (photo, title, description)
through a short guided conversation and publishes them on a small website.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "cooknet.yaml", "Path to the config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (cooknet.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cooknet.LoadConfig(path)
	if err != nil {
		return cooknet.Config{}, err
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database = db
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg cooknet.Config) *slog.Logger {
	return logging.FromConfig(cfg.LogFormat, cfg.LogLevel)
}
