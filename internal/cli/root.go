package cli

import (
	"github.com/spf13/cobra"
)

// verbose enables debug logging on stderr.
var verbose bool

var rootCmd = &cobra.Command{
	Use:           "logbook",
	Short:         "Track daily attendance across a practicum program",
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log store and sync activity to stderr")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(signoutCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(weekCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetHelpFunc(helpFunc)
}

// Execute runs the root command and prints any error.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		_, _ = rootCmd.ErrOrStderr().Write([]byte(Error("error: "+err.Error()) + "\n"))
	}
	return err
}
