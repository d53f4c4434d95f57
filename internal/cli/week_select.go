package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var weekSelectCmd = LeafCommand{
	Use:   "select",
	Short: "Pick a week interactively and show it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runWeekSelect(cmd, homeDir, NewPromptKit(), time.Now)
	},
}.Build()

func runWeekSelect(cmd *cobra.Command, homeDir string, kit PromptKit, nowFunc func() time.Time) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	tr := sess.tracker
	weeks := tr.AvailableWeeks()
	idx, err := kit.Select("Which week?", weekOptions(tr.State(), weeks))
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(weeks) {
		return fmt.Errorf("no week selected")
	}

	if err := tr.SelectWeek(commandContext(cmd), weeks[idx]); err != nil {
		return err
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), renderWeek(viewOf(tr)))
	return nil
}
