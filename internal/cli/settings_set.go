package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/store"
	"github.com/Flyrell/logbook/internal/week"
)

const startDateLayout = "2006-01-02"

var settingsSetCmd = LeafCommand{
	Use:   "set <start-date|total-weeks> <value>",
	Short: "Change the program start date or length",
	Args:  cobra.ExactArgs(2),
	BoolFlags: []BoolFlag{
		{Name: "yes", Shorthand: "y", Usage: "skip confirmation"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		confirm := NewConfirmFunc()
		if yes {
			confirm = AlwaysYes()
		}
		return runSettingsSet(cmd, homeDir, args[0], args[1], confirm, time.Now)
	},
}.Build()

func runSettingsSet(
	cmd *cobra.Command,
	homeDir, key, value string,
	confirm ConfirmFunc,
	nowFunc func() time.Time,
) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	state := sess.tracker.State()
	next := store.Settings{StartDate: state.StartDate, TotalWeeks: state.TotalWeeks}

	switch key {
	case "start-date":
		start, err := store.ParseStartDate(value)
		if err != nil {
			return err
		}
		if start.Weekday() != time.Monday {
			monday := week.MondayOf(start)
			ok, err := confirm(fmt.Sprintf("%s is a %s. Start the program on Monday %s instead?",
				start.Format(startDateLayout), start.Weekday(), monday.Format(startDateLayout)))
			if err != nil {
				return err
			}
			if ok {
				start = monday
			}
		}
		next.StartDate = start
	case "total-weeks":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid total-weeks %q (expected a positive number)", value)
		}
		next.TotalWeeks = n
	default:
		return fmt.Errorf("unknown setting %q (expected start-date or total-weeks)", key)
	}

	if err := sess.tracker.UpdateSettings(commandContext(cmd), next); err != nil {
		return err
	}

	state = sess.tracker.State()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("program starts %s and runs %s weeks, current week is %s",
		Primary(state.StartDate.Format(startDateLayout)),
		Primary(strconv.Itoa(state.TotalWeeks)),
		Primary(strconv.Itoa(state.CurrentWeek)))))
	return nil
}
