package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configDefault is the embedded config.yaml, written out when no config file exists yet
var configDefault string

var rootCmd = &cobra.Command{
	Use:   "post-revisions-service",
	Short: "Revision history store for forum posts",
	Long: `post-revisions-service keeps the edit history of forum posts.

The host forum reports edits and deletions through the hook endpoints;
readers fetch a post's history over HTTP or websocket. Posts still stored
in the legacy format are migrated when first read, or in bulk by "migrate".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command; c is the embedded default config
func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		bootstrapLogger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
