package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/attendance"
)

var activityCmd = LeafCommand{
	Use:   "activity [day] [text...]",
	Short: "Set the activity note of a day",
	IntFlags: []IntFlag{
		{Name: "week", Shorthand: "w", Usage: "program week (default: current week)"},
	},
	BoolFlags: []BoolFlag{
		{Name: "clear", Usage: "clear the activity note"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		weekFlag, _ := cmd.Flags().GetInt("week")
		clearFlag, _ := cmd.Flags().GetBool("clear")
		return runActivity(cmd, homeDir, args, weekFlag, clearFlag, NewPromptKit(), time.Now)
	},
}.Build()

func runActivity(
	cmd *cobra.Command,
	homeDir string,
	args []string,
	weekFlag int,
	clearFlag bool,
	kit PromptKit,
	nowFunc func() time.Time,
) error {
	sess, err := openSession(cmd, homeDir, nowFunc)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := sess.selectWeek(cmd, weekFlag); err != nil {
		return err
	}

	tr := sess.tracker
	days := tr.Days()

	i, err := resolveActivityDay(tr.TodayIndex, days, args, kit)
	if err != nil {
		return err
	}
	if !tr.CanEditActivity(i) {
		return fmt.Errorf("%s is signed out, its activity can no longer change (see 'logbook config set activity_policy allow-all')", dayLabel(days[i]))
	}

	var text string
	switch {
	case clearFlag:
		text = ""
	case len(args) > 1:
		text = strings.Join(args[1:], " ")
	default:
		text, err = kit.Prompt(fmt.Sprintf("Activity for %s", dayLabel(days[i])), days[i].Activity)
		if err != nil {
			return err
		}
	}

	if err := tr.SetActivity(commandContext(cmd), i, text); err != nil {
		if errors.Is(err, attendance.ErrDayClosed) {
			return fmt.Errorf("%s: %w", dayLabel(days[i]), err)
		}
		return err
	}

	updated := tr.Days()[i]
	if updated.Activity == "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("cleared activity for %s", Primary(dayLabel(updated)))))
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", Text(fmt.Sprintf("activity for %s: %s", Primary(dayLabel(updated)), updated.Activity)))
	return nil
}

// resolveActivityDay picks the day to edit from the first argument, falling
// back to today and then to an interactive choice.
func resolveActivityDay(todayIndex func() (int, bool), days attendance.Week, args []string, kit PromptKit) (int, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "today") {
		if i, ok := todayIndex(); ok {
			return i, nil
		}
		return -1, fmt.Errorf("today is not a workday of this week")
	}
	if len(args) > 0 {
		i, ok := attendance.ParseDayName(args[0])
		if !ok {
			return -1, fmt.Errorf("unknown day %q (expected mon-fri, 1-5 or today)", args[0])
		}
		return i, nil
	}

	if i, ok := todayIndex(); ok {
		return i, nil
	}

	options := make([]string, len(days))
	for i, d := range days {
		options[i] = dayLabel(d)
		if d.Activity != "" {
			options[i] += "  " + truncate(d.Activity, activityColWidth)
		}
	}
	return kit.Select("Which day?", options)
}
