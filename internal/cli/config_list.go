package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/config"
)

var configListCmd = LeafCommand{
	Use:   "list",
	Short: "Print every configuration value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runConfigList(cmd, homeDir)
	},
}.Build()

func runConfigList(cmd *cobra.Command, homeDir string) error {
	cfg, err := config.Read(homeDir)
	if err != nil {
		return err
	}

	width := 0
	for _, key := range config.Keys() {
		width = max(width, len(key))
	}

	for _, key := range config.Keys() {
		value, _ := cfg.Get(key)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", Silent(fmt.Sprintf("%-*s", width, key)), Text(displayValue(key, value)))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", Silent("file: "+config.Path(homeDir)))
	return nil
}
