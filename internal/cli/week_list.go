package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/tracker"
	"github.com/Flyrell/logbook/internal/week"
)

var weekListCmd = LeafCommand{
	Use:   "list",
	Short: "List the weeks available so far, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runWeekList(cmd, homeDir, time.Now)
	},
}.Build()

func runWeekList(cmd *cobra.Command, homeDir string, nowFunc func() time.Time) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	for _, line := range weekOptions(sess.tracker.State(), sess.tracker.AvailableWeeks()) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", line)
	}
	return nil
}

// weekOptions labels each week with its date range.
func weekOptions(state tracker.WeekState, weeks []int) []string {
	out := make([]string, len(weeks))
	for i, n := range weeks {
		first, last := week.DateRange(state.StartDate, n)
		label := fmt.Sprintf("Week %2d  %s - %s", n, attendance.DateKey(first), attendance.DateKey(last))
		if n == state.CurrentWeek {
			label += "  " + Primary("(current)")
		}
		out[i] = label
	}
	return out
}
