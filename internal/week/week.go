package week

import (
	"time"
)

// DefaultTotalWeeks is the program length used when settings are initialised.
const DefaultTotalWeeks = 24

// Workdays is the number of attendance days in a program week (Mon-Fri).
const Workdays = 5

// Truncate drops the clock part of t, keeping its location.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// daysBetween counts whole calendar days from start to today. Calendar dates
// are compared in UTC so DST shifts don't lose or add a day.
func daysBetween(start, today time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(s).Hours() / 24)
}

// CurrentWeek returns the 1-based program week that today falls in.
// Days are counted inclusively (the start date is day 1) and rounded up to
// whole weeks, so the first day of the program reads as week 1 and the
// following Monday as week 2. The result is clamped to [1, totalWeeks].
// A today before start counts as the start date.
func CurrentWeek(start, today time.Time, totalWeeks int) int {
	if totalWeeks < 1 {
		totalWeeks = 1
	}

	days := daysBetween(start, today)
	if days < 0 {
		days = 0
	}

	n := (days + 1 + 6) / 7
	if n < 1 {
		n = 1
	}
	if n > totalWeeks {
		n = totalWeeks
	}
	return n
}

// DateRange returns the first and last workday of program week n.
// n is expected to be within [1, totalWeeks]; callers validate it.
func DateRange(start time.Time, n int) (time.Time, time.Time) {
	first := Truncate(start).AddDate(0, 0, 7*(n-1))
	return first, first.AddDate(0, 0, Workdays-1)
}

// MondayOf returns the Monday of t's calendar week. Sunday belongs to the
// week that started six days earlier.
func MondayOf(t time.Time) time.Time {
	d := Truncate(t)
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, -offset)
}

// Available lists the navigable weeks, most recent first.
func Available(current int) []int {
	if current < 1 {
		return nil
	}
	weeks := make([]int, 0, current)
	for n := current; n >= 1; n-- {
		weeks = append(weeks, n)
	}
	return weeks
}
