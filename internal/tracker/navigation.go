package tracker

import (
	"context"
	"fmt"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/week"
)

// SelectWeek switches the viewed week to n, which must be within
// [1, current week]. The previous week's subscription is released; writes
// already in flight keep running.
func (t *Tracker) SelectWeek(ctx context.Context, n int) error {
	t.mu.Lock()
	if !t.loaded {
		t.mu.Unlock()
		return fmt.Errorf("tracker not loaded")
	}
	t.refreshLocked(t.now())
	if n < 1 || n > t.state.CurrentWeek {
		current := t.state.CurrentWeek
		t.mu.Unlock()
		return fmt.Errorf("%w: %d (available 1-%d)", ErrWeekOutOfRange, n, current)
	}

	prev := t.unsubscribe
	t.unsubscribe = nil
	t.gen++
	gen := t.gen

	first, _ := week.DateRange(t.state.StartDate, n)
	t.viewed = n
	t.days = t.withPending(attendance.BuildWeek(first))
	keys := t.days.Keys()
	t.mu.Unlock()

	// Released outside the lock: a delivery in progress may be waiting on it.
	if prev != nil {
		prev()
	}

	t.logger.DebugContext(ctx, "viewing week", "week", n, "from", keys[0], "to", keys[len(keys)-1])

	unsubscribe, err := t.store.Subscribe(ctx, t.uid, keys, t.onSnapshot(gen))
	if err != nil {
		t.report(NoticeSync, "live updates are unavailable", err)
	} else {
		t.mu.Lock()
		if t.gen == gen {
			t.unsubscribe = unsubscribe
			unsubscribe = nil
		}
		t.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	}

	snap, err := t.store.ReadAttendance(ctx, t.uid, keys)
	if err != nil {
		t.report(NoticeSync, fmt.Sprintf("could not load week %d", n), err)
		return nil
	}
	t.apply(gen, snap)
	return nil
}

// withPending overlays local writes that are not yet confirmed, so rebuilding
// a week never drops them.
func (t *Tracker) withPending(days attendance.Week) attendance.Week {
	for i, d := range days {
		if e, ok := t.pending[d.Key()]; ok {
			days[i].TimeIn = e.TimeIn
			days[i].TimeOut = e.TimeOut
			days[i].Activity = e.Activity
			days[i].UpdatedAt = e.UpdatedAt
		}
	}
	return days
}

func (t *Tracker) onSnapshot(gen int) func(attendance.Snapshot) {
	return func(snap attendance.Snapshot) {
		t.apply(gen, snap)
	}
}

// apply merges a snapshot into the viewed week unless the week changed since
// the snapshot was requested.
func (t *Tracker) apply(gen int, snap attendance.Snapshot) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}

	merged, confirmed := attendance.Reconcile(t.days, snap, t.dirty)
	t.days = merged
	for _, k := range confirmed {
		delete(t.dirty, k)
		delete(t.pending, k)
	}
	t.mu.Unlock()

	if len(snap) > 0 {
		t.logger.Debug("merged snapshot", "entries", len(snap), "confirmed", len(confirmed))
	}
	t.onChange()
}

// ViewedWeek returns the week currently displayed.
func (t *Tracker) ViewedWeek() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewed
}

// Days returns a copy of the viewed week's records.
func (t *Tracker) Days() attendance.Week {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.days.Clone()
}

// AvailableWeeks lists the navigable weeks, most recent first.
func (t *Tracker) AvailableWeeks() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshLocked(t.now())
	return week.Available(t.state.CurrentWeek)
}

// Pending reports how many dates have local writes not yet confirmed by the
// store.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.dirty)
}

// Close releases the subscription. Writes in flight are not cancelled; use
// Flush to wait for them.
func (t *Tracker) Close() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.gen++
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
