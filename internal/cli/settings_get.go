package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var settingsGetCmd = LeafCommand{
	Use:   "get",
	Short: "Show the program start date, length and current week",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		return runSettingsGet(cmd, homeDir, time.Now)
	},
}.Build()

func runSettingsGet(cmd *cobra.Command, homeDir string, nowFunc func() time.Time) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	state := sess.tracker.State()
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s    %s\n", Silent("start-date:"), Primary(state.StartDate.Format(startDateLayout)))
	_, _ = fmt.Fprintf(w, "%s   %s\n", Silent("total-weeks:"), Primary(fmt.Sprintf("%d", state.TotalWeeks)))
	_, _ = fmt.Fprintf(w, "%s  %s\n", Silent("current-week:"), Primary(fmt.Sprintf("%d", state.CurrentWeek)))
	if sess.tracker.Transient() {
		_, _ = fmt.Fprintf(w, "%s\n", Warning("these settings are temporary, the store could not be reached"))
	}
	return nil
}
