package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/cooknet/pkg/adapters/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store, err := sqlite.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		version, err := store.SchemaVersion(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", cfg.Database, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
