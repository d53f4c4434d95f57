package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = LeafCommand{
	Use:   "status",
	Short: "Show the attendance of a program week",
	IntFlags: []IntFlag{
		{Name: "week", Shorthand: "w", Usage: "program week (default: current week)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		weekFlag, _ := cmd.Flags().GetInt("week")
		return runStatus(cmd, homeDir, weekFlag, time.Now)
	},
}.Build()

func runStatus(cmd *cobra.Command, homeDir string, weekFlag int, nowFunc func() time.Time) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := sess.selectWeek(cmd, weekFlag); err != nil {
		return err
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), renderWeek(viewOf(sess.tracker)))
	return nil
}
