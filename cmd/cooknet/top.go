package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/cooknet/internal/presentation/tui"
	"github.com/aretw0/cooknet/pkg/adapters/sqlite"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the most liked recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		plain, _ := cmd.Flags().GetBool("plain")

		store, err := sqlite.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		recipes, err := store.TopRecipes(context.Background(), limit)
		if err != nil {
			return err
		}

		// Pipes and files get raw markdown.
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			plain = true
		}
		out, err := tui.NewRenderer(plain)(tui.RecipesMarkdown("🏆 Top recipes", recipes))
		if err != nil {
			return fmt.Errorf("failed to render: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	topCmd.Flags().IntP("limit", "n", 10, "Number of recipes to show")
	topCmd.Flags().Bool("plain", false, "Print raw markdown")
}
