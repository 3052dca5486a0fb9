package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/cooknet"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cooknet",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "cooknet version %s\n", strings.TrimSpace(cooknet.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
