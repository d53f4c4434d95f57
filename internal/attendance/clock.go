package attendance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay represents a clock time without a date component.
type TimeOfDay struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// String returns TimeOfDay in "HH:MM" format.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// ClockOf returns the time of day of t.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

var (
	// 9:30am, 9:30 pm
	timeColonAMPM = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)$`)
	// 9.30am
	timeDotAMPM = regexp.MustCompile(`^(\d{1,2})\.(\d{2})\s*(am|pm)$`)
	// 9am, 2pm
	timeAMPM = regexp.MustCompile(`^(\d{1,2})\s*(am|pm)$`)
	// 14:00, 09:30
	time24h = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	// 14.00
	timeDot24h = regexp.MustCompile(`^(\d{1,2})\.(\d{2})$`)
)

// ParseTimeOfDay parses a recorded clock value. Entries written by other
// clients may use 12-hour forms, so "9:30am", "9.30am", "9am", "14:00" and
// "14.00" are all accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if m := timeColonAMPM.FindStringSubmatch(s); m != nil {
		return parseHourMinuteAMPM(m[1], m[2], m[3])
	}
	if m := timeDotAMPM.FindStringSubmatch(s); m != nil {
		return parseHourMinuteAMPM(m[1], m[2], m[3])
	}
	if m := timeAMPM.FindStringSubmatch(s); m != nil {
		return parseHourMinuteAMPM(m[1], "0", m[2])
	}
	if m := time24h.FindStringSubmatch(s); m != nil {
		return parseHourMinute24(m[1], m[2])
	}
	if m := timeDot24h.FindStringSubmatch(s); m != nil {
		return parseHourMinute24(m[1], m[2])
	}

	return TimeOfDay{}, fmt.Errorf("unrecognized time format %q", s)
}

func parseHourMinuteAMPM(hourStr, minStr, ampm string) (TimeOfDay, error) {
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minStr)

	if hour < 1 || hour > 12 {
		return TimeOfDay{}, fmt.Errorf("hour %d out of range for 12-hour format", hour)
	}
	if minute > 59 {
		return TimeOfDay{}, fmt.Errorf("minute %d out of range", minute)
	}

	if ampm == "am" {
		if hour == 12 {
			hour = 0
		}
	} else if hour != 12 {
		hour += 12
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

func parseHourMinute24(hourStr, minStr string) (TimeOfDay, error) {
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minStr)

	if hour > 23 {
		return TimeOfDay{}, fmt.Errorf("hour %d out of range", hour)
	}
	if minute > 59 {
		return TimeOfDay{}, fmt.Errorf("minute %d out of range", minute)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}
