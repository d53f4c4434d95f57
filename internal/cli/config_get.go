package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/config"
)

var configGetCmd = LeafCommand{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runConfigGet(cmd, homeDir, args[0])
	},
}.Build()

func runConfigGet(cmd *cobra.Command, homeDir, key string) error {
	cfg, err := config.Read(homeDir)
	if err != nil {
		return err
	}

	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}
