package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDayClosed is returned when an activity edit targets a signed-out day
	// under PolicyBlockClosed.
	ErrDayClosed = errors.New("day is already signed out")
	// ErrNoSuchDay is returned for a day index outside the week.
	ErrNoSuchDay = errors.New("no such day in week")
)

// ActivityPolicy controls which days accept activity edits.
type ActivityPolicy string

const (
	// PolicyBlockClosed refuses edits on days that are already signed out.
	PolicyBlockClosed ActivityPolicy = "block-closed"
	// PolicyAllowAll accepts edits on any day of the week.
	PolicyAllowAll ActivityPolicy = "allow-all"
)

// DefaultActivityPolicy is used when no policy is configured.
const DefaultActivityPolicy = PolicyBlockClosed

// ParseActivityPolicy validates a configured policy name.
func ParseActivityPolicy(s string) (ActivityPolicy, error) {
	switch p := ActivityPolicy(strings.TrimSpace(strings.ToLower(s))); p {
	case "":
		return DefaultActivityPolicy, nil
	case PolicyBlockClosed, PolicyAllowAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown activity policy %q (expected %s or %s)", s, PolicyBlockClosed, PolicyAllowAll)
	}
}

// Machine applies the day transitions NotSignedIn -> SignedIn -> SignedOut.
// Sign-in and sign-out are only legal for today's record; a call whose guard
// is false leaves the week unchanged and reports false.
type Machine struct {
	Policy ActivityPolicy
}

// SignIn stamps today's time-in. It returns the index of the changed record.
func (m Machine) SignIn(w Week, now time.Time) (int, bool) {
	i, ok := w.TodayIndex(now)
	if !ok || w[i].TimeIn != "" {
		return -1, false
	}
	w[i].TimeIn = now.Format(ClockLayout)
	w[i].UpdatedAt = now
	return i, true
}

// SignOut stamps today's time-out once signed in.
func (m Machine) SignOut(w Week, now time.Time) (int, bool) {
	i, ok := w.TodayIndex(now)
	if !ok || w[i].TimeIn == "" || w[i].TimeOut != "" {
		return -1, false
	}
	w[i].TimeOut = now.Format(ClockLayout)
	w[i].UpdatedAt = now
	return i, true
}

// SetActivity stores the trimmed text as day i's activity. An empty text
// clears it.
func (m Machine) SetActivity(w Week, i int, text string, now time.Time) error {
	if i < 0 || i >= len(w) {
		return ErrNoSuchDay
	}
	if m.policy() == PolicyBlockClosed && w[i].State() == SignedOut {
		return fmt.Errorf("%s %s: %w", w[i].Day, DateKey(w[i].Date), ErrDayClosed)
	}
	w[i].Activity = strings.TrimSpace(text)
	w[i].UpdatedAt = now
	return nil
}

// CanSignIn reports whether today is in the week and not yet signed in.
func (m Machine) CanSignIn(w Week, now time.Time) bool {
	i, ok := w.TodayIndex(now)
	return ok && w[i].TimeIn == ""
}

// CanSignOut reports whether today is in the week, signed in and still open.
func (m Machine) CanSignOut(w Week, now time.Time) bool {
	i, ok := w.TodayIndex(now)
	return ok && w[i].TimeIn != "" && w[i].TimeOut == ""
}

// CanEditActivity reports whether SetActivity would accept day i.
func (m Machine) CanEditActivity(w Week, i int) bool {
	if i < 0 || i >= len(w) {
		return false
	}
	return m.policy() == PolicyAllowAll || w[i].State() != SignedOut
}

func (m Machine) policy() ActivityPolicy {
	if m.Policy == "" {
		return DefaultActivityPolicy
	}
	return m.Policy
}
