package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/config"
)

var configSetCmd = LeafCommand{
	Use:   "set <key> <value>",
	Short: "Change one configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runConfigSet(cmd, homeDir, args[0], args[1])
	},
}.Build()

func runConfigSet(cmd *cobra.Command, homeDir, key, value string) error {
	cfg, err := config.ReadFile(homeDir)
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Write(homeDir, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	got, _ := cfg.Get(key)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("%s set to %s", key, Primary(displayValue(key, got)))))
	return nil
}

// displayValue hides secrets in output.
func displayValue(key, value string) string {
	if key == "redis_password" && value != "" {
		return "********"
	}
	return value
}
