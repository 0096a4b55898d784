package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time with -ldflags.
var Version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		if Version == "" {
			Version = "dev"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "news-enricher %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
