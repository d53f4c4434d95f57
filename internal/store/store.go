// Package store holds the record stores the attendance engine syncs with.
//
// Every adapter follows the same contract: settings are a single document per
// user, attendance entries are keyed by date and written with last-write-wins
// on the entry's UpdatedAt stamp, and subscribers are notified with the
// entries that changed, whoever wrote them.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Flyrell/logbook/internal/attendance"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Settings is the per-user program configuration.
type Settings struct {
	StartDate  time.Time // Monday of week 1
	TotalWeeks int
}

// SnapshotFunc receives changed attendance entries. It may be called more
// than once for the same logical state and from any goroutine.
type SnapshotFunc func(attendance.Snapshot)

// Store is the remote record store the engine reads from and writes to.
type Store interface {
	// GetSettings returns nil, nil when the user has no settings yet.
	GetSettings(ctx context.Context, uid string) (*Settings, error)
	SetSettings(ctx context.Context, uid string, s Settings) error
	ReadAttendance(ctx context.Context, uid string, keys []string) (attendance.Snapshot, error)
	WriteAttendance(ctx context.Context, uid string, entries map[string]attendance.Entry) error
	// Subscribe registers fn for changes to the given date keys. The returned
	// func releases the subscription.
	Subscribe(ctx context.Context, uid string, keys []string, fn SnapshotFunc) (func(), error)
	Close() error
}

// settingsDoc is the stored form of Settings.
type settingsDoc struct {
	StartDate  string `json:"startDate"`
	TotalWeeks int    `json:"totalWeeks"`
}

const startDateLayout = "2006-01-02"

func toDoc(s Settings) settingsDoc {
	return settingsDoc{StartDate: s.StartDate.Format(startDateLayout), TotalWeeks: s.TotalWeeks}
}

// fromDoc decodes stored settings. Older documents carry a full ISO-8601
// timestamp instead of a date; only its calendar date is kept.
func fromDoc(d settingsDoc) (*Settings, error) {
	start, err := ParseStartDate(d.StartDate)
	if err != nil {
		return nil, err
	}
	return &Settings{StartDate: start, TotalWeeks: d.TotalWeeks}, nil
}

// ParseStartDate parses an ISO-8601 date or timestamp into a local date.
func ParseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(startDateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD)", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
}

// applyLWW merges incoming entries into current and returns the ones that
// were applied. Entries without a stamp were never written locally and are
// dropped.
func applyLWW(current attendance.Snapshot, incoming map[string]attendance.Entry) attendance.Snapshot {
	applied := attendance.Snapshot{}
	for key, e := range incoming {
		if e.UpdatedAt.IsZero() {
			continue
		}
		if cur, ok := current[key]; ok && !e.Newer(cur) {
			continue
		}
		current[key] = e
		applied[key] = e
	}
	return applied
}

func pick(snap attendance.Snapshot, keys []string) attendance.Snapshot {
	out := make(attendance.Snapshot, len(keys))
	for _, k := range keys {
		if e, ok := snap[k]; ok {
			out[k] = e
		}
	}
	return out
}
