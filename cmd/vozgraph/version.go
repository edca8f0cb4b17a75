package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vozgraph"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vozgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vozgraph version %s\n", strings.TrimSpace(vozgraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
