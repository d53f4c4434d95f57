package attendance

import (
	"time"
)

// DateKeyLayout is the store key format for a calendar date (MM/DD/YY).
// Reads and writes must go through DateKey so lookups never silently miss.
const DateKeyLayout = "01/02/06"

// ClockLayout is the time-of-day format written on sign-in and sign-out.
const ClockLayout = "15:04"

// DayName identifies a workday within a program week.
type DayName string

const (
	Monday    DayName = "Mon"
	Tuesday   DayName = "Tue"
	Wednesday DayName = "Wed"
	Thursday  DayName = "Thu"
	Friday    DayName = "Fri"
)

// DayNames lists the workdays in week order.
var DayNames = [...]DayName{Monday, Tuesday, Wednesday, Thursday, Friday}

// State is the attendance state of a single day.
type State int

const (
	NotSignedIn State = iota
	SignedIn
	SignedOut
)

func (s State) String() string {
	switch s {
	case SignedIn:
		return "signed in"
	case SignedOut:
		return "signed out"
	default:
		return "not signed in"
	}
}

// DayRecord is the view-model for one workday of the viewed week.
// Day and Date are derived from the week start and never persisted.
type DayRecord struct {
	Day       DayName
	Date      time.Time
	TimeIn    string
	TimeOut   string
	Activity  string
	UpdatedAt time.Time // last mutation stamp, zero when never written
}

// Key returns the store key of the record's date.
func (r DayRecord) Key() string {
	return DateKey(r.Date)
}

// State derives the attendance state from the recorded times.
func (r DayRecord) State() State {
	switch {
	case r.TimeIn == "":
		return NotSignedIn
	case r.TimeOut == "":
		return SignedIn
	default:
		return SignedOut
	}
}

// Entry returns the persisted subset of the record.
func (r DayRecord) Entry() Entry {
	return Entry{
		TimeIn:    r.TimeIn,
		TimeOut:   r.TimeOut,
		Activity:  r.Activity,
		UpdatedAt: r.UpdatedAt,
	}
}

// overlay replaces all attendance fields with the entry's.
func (r DayRecord) overlay(e Entry) DayRecord {
	r.TimeIn = e.TimeIn
	r.TimeOut = e.TimeOut
	r.Activity = e.Activity
	r.UpdatedAt = e.UpdatedAt
	return r
}

// Entry is the stored form of a day record, keyed by DateKey in the store.
type Entry struct {
	TimeIn    string    `json:"timeIn,omitempty"`
	TimeOut   string    `json:"timeOut,omitempty"`
	Activity  string    `json:"activity,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Empty reports whether the entry carries no attendance data.
func (e Entry) Empty() bool {
	return e.TimeIn == "" && e.TimeOut == "" && e.Activity == ""
}

// Newer reports whether e should replace other under last-write-wins.
// Equal stamps favour the incoming entry so retries are idempotent.
func (e Entry) Newer(other Entry) bool {
	return !e.UpdatedAt.Before(other.UpdatedAt)
}

// Snapshot is a view of the attendance store keyed by date.
type Snapshot map[string]Entry

// DateKey formats a calendar date as a store key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a store key back into a date in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateKeyLayout, key, loc)
}
