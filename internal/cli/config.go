package cli

import "github.com/spf13/cobra"

var configCmd = GroupCommand{
	Use:   "config",
	Short: "Show or change the local client configuration",
	Subcommands: []*cobra.Command{
		configGetCmd,
		configSetCmd,
		configListCmd,
	},
}.Build()
