package cli

import (
	"fmt"
	"strings"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/tracker"
)

const (
	clockColWidth    = 5
	activityColWidth = 40
)

// weekView is everything needed to draw one week.
type weekView struct {
	state    tracker.WeekState
	viewed   int
	days     attendance.Week
	today    int
	hasToday bool
	summary  attendance.Summary
	pending  int
}

func viewOf(tr *tracker.Tracker) weekView {
	days := tr.Days()
	today, ok := tr.TodayIndex()
	return weekView{
		state:    tr.State(),
		viewed:   tr.ViewedWeek(),
		days:     days,
		today:    today,
		hasToday: ok,
		summary:  attendance.Summarize(days),
		pending:  tr.Pending(),
	}
}

// weekTitle renders "Week 2 of 12 · 09/09/24 - 09/13/24".
func weekTitle(v weekView) string {
	title := fmt.Sprintf("Week %d of %d", v.viewed, v.state.TotalWeeks)
	if len(v.days) > 0 {
		title += fmt.Sprintf(" · %s - %s", v.days[0].Key(), v.days[len(v.days)-1].Key())
	}
	return title
}

// renderWeek draws the week table, today's state and the summary.
func renderWeek(v weekView) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(weekTitle(v)))
	if v.viewed != v.state.CurrentWeek {
		b.WriteString("  " + Silent(fmt.Sprintf("(current: week %d)", v.state.CurrentWeek)))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-3s  %-8s  %-*s  %-*s  %s",
		"Day", "Date", clockColWidth, "In", clockColWidth, "Out", "Activity")))
	b.WriteString("\n")

	for i, d := range v.days {
		line := fmt.Sprintf("%-3s  %-8s  %-*s  %-*s  %s",
			d.Day, d.Key(),
			clockColWidth, orDash(d.TimeIn),
			clockColWidth, orDash(d.TimeOut),
			truncate(d.Activity, activityColWidth))
		if v.hasToday && i == v.today {
			line = todayStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if v.hasToday {
		b.WriteString(fmt.Sprintf("%s  %s\n", Silent("Today:"), StateLabel(v.days[v.today].State())))
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", Silent("Total:"), Text(summaryLine(v.summary))))
	if v.pending > 0 {
		b.WriteString(Warning(fmt.Sprintf("%d day(s) not saved yet", v.pending)))
		b.WriteString("\n")
	}

	return b.String()
}

func summaryLine(s attendance.Summary) string {
	days := "days"
	if s.DaysAttended == 1 {
		days = "day"
	}
	return fmt.Sprintf("%s (%d %s attended)", attendance.FormatMinutes(s.TotalMinutes), s.DaysAttended, days)
}

// dayLabel renders "Mon 09/02/24".
func dayLabel(d attendance.DayRecord) string {
	return fmt.Sprintf("%s %s", d.Day, d.Key())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
