package attendance

import (
	"fmt"
	"strings"
)

// DaySummary holds the worked time for one record.
type DaySummary struct {
	Day     DayName
	Minutes int
	Open    bool // signed in without a time-out yet
}

// Summary aggregates worked time for a week.
type Summary struct {
	Days         []DaySummary
	TotalMinutes int
	DaysAttended int
}

// Summarize computes worked minutes per day from the recorded times.
// Days with unparseable or inverted times count as zero minutes.
func Summarize(w Week) Summary {
	s := Summary{Days: make([]DaySummary, len(w))}

	for i, d := range w {
		ds := DaySummary{Day: d.Day}
		if d.TimeIn != "" {
			s.DaysAttended++
		}
		switch d.State() {
		case SignedIn:
			ds.Open = true
		case SignedOut:
			ds.Minutes = workedMinutes(d.TimeIn, d.TimeOut)
		}
		s.Days[i] = ds
		s.TotalMinutes += ds.Minutes
	}

	return s
}

func workedMinutes(in, out string) int {
	from, err := ParseTimeOfDay(in)
	if err != nil {
		return 0
	}
	to, err := ParseTimeOfDay(out)
	if err != nil {
		return 0
	}
	if mins := to.Minutes() - from.Minutes(); mins > 0 {
		return mins
	}
	return 0
}

// FormatMinutes converts a minute count to a human-friendly string.
// Examples: 90 → "1h 30m", 30 → "30m".
func FormatMinutes(m int) string {
	if m <= 0 {
		return "0m"
	}

	hours := m / 60
	mins := m % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 || hours == 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}

	return strings.Join(parts, " ")
}
