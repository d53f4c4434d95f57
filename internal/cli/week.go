package cli

import "github.com/spf13/cobra"

var weekCmd = GroupCommand{
	Use:   "week",
	Short: "Browse program weeks",
	Subcommands: []*cobra.Command{
		weekListCmd,
		weekShowCmd,
		weekSelectCmd,
	},
}.Build()
