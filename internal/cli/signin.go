package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var signinCmd = LeafCommand{
	Use:     "signin",
	Aliases: []string{"in"},
	Short:   "Record today's time-in",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runSignIn(cmd, homeDir, time.Now)
	},
}.Build()

func runSignIn(cmd *cobra.Command, homeDir string, nowFunc func() time.Time) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	tr := sess.tracker
	w := cmd.OutOrStdout()

	if !tr.SignIn(commandContext(cmd)) {
		i, ok := tr.TodayIndex()
		if !ok {
			_, _ = fmt.Fprintf(w, "%s\n", Warning("today is not a workday of the current program week"))
			return nil
		}
		day := tr.Days()[i]
		_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf("already signed in at %s on %s", Primary(day.TimeIn), dayLabel(day))))
		return nil
	}

	i, _ := tr.TodayIndex()
	day := tr.Days()[i]
	_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf("signed in at %s on %s", Primary(day.TimeIn), dayLabel(day))))
	return nil
}
