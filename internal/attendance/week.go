package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/Flyrell/logbook/internal/week"
)

// Week is the ordered set of day records (Mon..Fri) for one program week.
// It is rebuilt whenever the viewed week changes.
type Week []DayRecord

// BuildWeek returns empty records for the five workdays starting at weekStart.
func BuildWeek(weekStart time.Time) Week {
	dates := workdayDates(week.Truncate(weekStart))

	days := make(Week, len(DayNames))
	for i, name := range DayNames {
		days[i] = DayRecord{Day: name, Date: dates[i]}
	}
	return days
}

// workdayDates expands the five consecutive dates of a week from its start.
func workdayDates(start time.Time) []time.Time {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   week.Workdays,
		Dtstart: start,
	})
	if err != nil {
		panic(fmt.Sprintf("attendance: workday rule: %v", err))
	}
	return r.All()
}

// Hydrate overlays stored entries onto the records. Matching entries replace
// all attendance fields of their day; days without an entry stay as they are.
func Hydrate(days Week, snap Snapshot) Week {
	return Merge(days, snap, nil)
}

// TodayIndex returns the position of now's date in the week.
// The second result is false when today is not one of the week's workdays.
func (w Week) TodayIndex(now time.Time) (int, bool) {
	for i, d := range w {
		if week.SameDay(d.Date, now) {
			return i, true
		}
	}
	return -1, false
}

// Dates returns the calendar dates of the week in order.
func (w Week) Dates() []time.Time {
	dates := make([]time.Time, len(w))
	for i, d := range w {
		dates[i] = d.Date
	}
	return dates
}

// Keys returns the store keys of the week in order.
func (w Week) Keys() []string {
	keys := make([]string, len(w))
	for i, d := range w {
		keys[i] = d.Key()
	}
	return keys
}

// Entries returns the persisted form of every day, keyed by date.
func (w Week) Entries() map[string]Entry {
	out := make(map[string]Entry, len(w))
	for _, d := range w {
		out[d.Key()] = d.Entry()
	}
	return out
}

// Index returns the position of the record with the given key.
func (w Week) Index(key string) (int, bool) {
	for i, d := range w {
		if d.Key() == key {
			return i, true
		}
	}
	return -1, false
}

// Clone returns an independent copy of the week.
func (w Week) Clone() Week {
	if w == nil {
		return nil
	}
	out := make(Week, len(w))
	copy(out, w)
	return out
}

// ParseDayName resolves a day argument ("mon", "Monday", "3") to its index.
func ParseDayName(s string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon", "monday", "1":
		return 0, true
	case "tue", "tues", "tuesday", "2":
		return 1, true
	case "wed", "wednesday", "3":
		return 2, true
	case "thu", "thur", "thurs", "thursday", "4":
		return 3, true
	case "fri", "friday", "5":
		return 4, true
	}
	return -1, false
}
