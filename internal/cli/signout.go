package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/attendance"
)

var signoutCmd = LeafCommand{
	Use:     "signout",
	Aliases: []string{"out"},
	Short:   "Record today's time-out",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runSignOut(cmd, homeDir, time.Now)
	},
}.Build()

func runSignOut(cmd *cobra.Command, homeDir string, nowFunc func() time.Time) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	tr := sess.tracker
	w := cmd.OutOrStdout()

	i, ok := tr.TodayIndex()
	if !ok {
		_, _ = fmt.Fprintf(w, "%s\n", Warning("today is not a workday of the current program week"))
		return nil
	}

	if !tr.SignOut(commandContext(cmd)) {
		_, _ = fmt.Fprintf(w, "%s\n", Warning(signOutHint(tr.Days()[i])))
		return nil
	}

	day := tr.Days()[i]
	mins := attendance.Summarize(attendance.Week{day}).TotalMinutes
	_, _ = fmt.Fprintf(w, "%s\n", Text(fmt.Sprintf("signed out at %s on %s (%s)",
		Primary(day.TimeOut), dayLabel(day), attendance.FormatMinutes(mins))))
	return nil
}

// signOutHint explains why a sign-out did nothing.
func signOutHint(day attendance.DayRecord) string {
	if day.State() == attendance.NotSignedIn {
		return "not signed in yet today"
	}
	return fmt.Sprintf("already signed out at %s on %s", day.TimeOut, dayLabel(day))
}
