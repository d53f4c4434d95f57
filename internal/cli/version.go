package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var versionCmd = LeafCommand{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logbook %s (commit: %s, built: %s, %s)\n", appVersion, appCommit, appDate, runtime.Version())
		return nil
	},
}.Build()
