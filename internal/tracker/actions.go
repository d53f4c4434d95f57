package tracker

import (
	"context"
	"time"

	"github.com/Flyrell/logbook/internal/attendance"
)

// SignIn records today's time-in. It returns false, changing nothing, when
// today is not in the viewed week or is already signed in.
func (t *Tracker) SignIn(ctx context.Context) bool {
	return t.transition(ctx, "sign in", t.machine.SignIn)
}

// SignOut records today's time-out. It returns false, changing nothing,
// unless today is signed in and not yet signed out.
func (t *Tracker) SignOut(ctx context.Context) bool {
	return t.transition(ctx, "sign out", t.machine.SignOut)
}

func (t *Tracker) transition(ctx context.Context, name string, fn func(attendance.Week, time.Time) (int, bool)) bool {
	t.mu.Lock()
	now := t.now()
	t.refreshLocked(now)
	i, ok := fn(t.days, now)
	if !ok {
		t.mu.Unlock()
		t.logger.DebugContext(ctx, name+" ignored", "week", t.ViewedWeek())
		return false
	}
	t.markLocked(i)
	entries := t.days.Entries()
	day := t.days[i]
	t.mu.Unlock()

	t.logger.InfoContext(ctx, name, "date", day.Key(), "in", day.TimeIn, "out", day.TimeOut)
	t.onChange()
	t.persist(ctx, entries)
	return true
}

// SetActivity stores the activity note of day i (0 = Monday) of the viewed
// week. It fails with attendance.ErrDayClosed or attendance.ErrNoSuchDay.
func (t *Tracker) SetActivity(ctx context.Context, i int, text string) error {
	t.mu.Lock()
	if err := t.machine.SetActivity(t.days, i, text, t.now()); err != nil {
		t.mu.Unlock()
		return err
	}
	t.markLocked(i)
	entries := t.days.Entries()
	key := t.days[i].Key()
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "activity updated", "date", key)
	t.onChange()
	t.persist(ctx, entries)
	return nil
}

// markLocked records day i as locally modified.
func (t *Tracker) markLocked(i int) {
	d := t.days[i]
	t.dirty.Mark(d.Key(), d.UpdatedAt)
	t.pending[d.Key()] = d.Entry()
}

// persist writes the whole viewed week in the background. The write outlives
// ctx's cancellation; a failure keeps local state and raises a notice.
func (t *Tracker) persist(ctx context.Context, entries map[string]attendance.Entry) {
	ctx = context.WithoutCancel(ctx)

	t.writes.Add(1)
	go func() {
		defer t.writes.Done()
		if err := t.store.WriteAttendance(ctx, t.uid, entries); err != nil {
			t.report(NoticePersist, "could not save attendance, it will be saved with your next change", err)
		}
	}()
}

// Flush waits for writes in flight.
func (t *Tracker) Flush() {
	t.writes.Wait()
}

// TodayIndex returns today's position in the viewed week.
func (t *Tracker) TodayIndex() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.days.TodayIndex(t.now())
}

// CanSignIn reports whether SignIn would record a time-in now.
func (t *Tracker) CanSignIn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.machine.CanSignIn(t.days, t.now())
}

// CanSignOut reports whether SignOut would record a time-out now.
func (t *Tracker) CanSignOut() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.machine.CanSignOut(t.days, t.now())
}

// CanEditActivity reports whether day i accepts an activity edit.
func (t *Tracker) CanEditActivity(i int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.machine.CanEditActivity(t.days, i)
}

// Summary aggregates worked time for the viewed week.
func (t *Tracker) Summary() attendance.Summary {
	return attendance.Summarize(t.Days())
}
