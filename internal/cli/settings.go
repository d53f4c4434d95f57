package cli

import "github.com/spf13/cobra"

var settingsCmd = GroupCommand{
	Use:   "settings",
	Short: "Show or change the program settings kept in the store",
	Subcommands: []*cobra.Command{
		settingsGetCmd,
		settingsSetCmd,
	},
}.Build()
