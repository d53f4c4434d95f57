// Package tracker runs an attendance session: it owns the program week state,
// the viewed week's day records and their synchronisation with a store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/store"
	"github.com/Flyrell/logbook/internal/week"
)

// ErrWeekOutOfRange is returned when selecting a week outside [1, current].
var ErrWeekOutOfRange = errors.New("week out of range")

// WeekState is the session's view of the program.
type WeekState struct {
	StartDate   time.Time
	TotalWeeks  int
	CurrentWeek int
}

// Tracker is one user's attendance session. All methods are safe for
// concurrent use; remote snapshots are merged under the same lock as local
// mutations.
type Tracker struct {
	store        store.Store
	uid          string
	clientID     string
	now          func() time.Time
	machine      attendance.Machine
	defaultTotal int
	logger       *slog.Logger
	notify       NoticeFunc
	onChange     func()

	mu          sync.Mutex
	state       WeekState
	loaded      bool
	transient   bool
	viewed      int
	days        attendance.Week
	dirty       attendance.Dirty
	pending     map[string]attendance.Entry
	unsubscribe func()
	gen         int

	writes sync.WaitGroup
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithPolicy sets the activity edit policy.
func WithPolicy(p attendance.ActivityPolicy) Option {
	return func(t *Tracker) { t.machine.Policy = p }
}

// WithTotalWeeks sets the program length used when settings are created.
func WithTotalWeeks(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.defaultTotal = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithNotices sets the receiver of user-visible notices.
func WithNotices(fn NoticeFunc) Option {
	return func(t *Tracker) { t.notify = fn }
}

// WithOnChange sets a callback run after the viewed week changed, whether
// from a local mutation or a merged snapshot. It is called without the
// tracker's lock held and may be called from any goroutine.
func WithOnChange(fn func()) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// New creates a session for uid backed by s. Call Load before use.
func New(s store.Store, uid string, opts ...Option) *Tracker {
	t := &Tracker{
		store:        s,
		uid:          uid,
		clientID:     uuid.NewString(),
		now:          time.Now,
		machine:      attendance.Machine{Policy: attendance.DefaultActivityPolicy},
		defaultTotal: week.DefaultTotalWeeks,
		notify:       func(Notice) {},
		onChange:     func() {},
		dirty:        attendance.Dirty{},
		pending:      make(map[string]attendance.Entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With("component", "tracker", "uid", uid, "client", t.clientID)
	return t
}

// Load reads the program settings, creating them on first use, and selects
// the current week. Store failures are reported as notices and an in-memory
// default is used, so Load only fails when the context is done.
func (t *Tracker) Load(ctx context.Context) error {
	now := t.now()
	settings, err := t.store.GetSettings(ctx, t.uid)
	if err != nil {
		t.report(NoticeInit, "could not load program settings, using a temporary schedule", err)
		settings = nil
	}

	transient := err != nil
	if settings == nil {
		settings = &store.Settings{StartDate: week.MondayOf(now), TotalWeeks: t.defaultTotal}
		if !transient {
			if err := t.store.SetSettings(ctx, t.uid, *settings); err != nil {
				t.report(NoticeInit, "could not save program settings", err)
				transient = true
			} else {
				t.logger.InfoContext(ctx, "initialised program settings",
					"start", settings.StartDate.Format("2006-01-02"), "weeks", settings.TotalWeeks)
			}
		}
	}
	if settings.TotalWeeks < 1 {
		settings.TotalWeeks = t.defaultTotal
	}

	t.mu.Lock()
	t.state = WeekState{
		StartDate:   week.Truncate(settings.StartDate),
		TotalWeeks:  settings.TotalWeeks,
		CurrentWeek: week.CurrentWeek(settings.StartDate, now, settings.TotalWeeks),
	}
	t.loaded = true
	t.transient = transient
	current := t.state.CurrentWeek
	t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return t.SelectWeek(ctx, current)
}

// Transient reports whether the session runs on in-memory default settings.
func (t *Tracker) Transient() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transient
}

// ClientID identifies this session in logs.
func (t *Tracker) ClientID() string {
	return t.clientID
}

// State returns the program week state.
func (t *Tracker) State() WeekState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// CurrentWeek returns the computed current program week.
func (t *Tracker) CurrentWeek() int {
	return t.State().CurrentWeek
}

// Refresh recomputes the current week from the clock. The current week only
// moves forward as time passes.
func (t *Tracker) Refresh() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshLocked(t.now())
	return t.state.CurrentWeek
}

func (t *Tracker) refreshLocked(now time.Time) {
	if !t.loaded {
		return
	}
	n := week.CurrentWeek(t.state.StartDate, now, t.state.TotalWeeks)
	if n > t.state.CurrentWeek {
		t.state.CurrentWeek = n
	}
}

// UpdateSettings replaces the program settings and reselects the current
// week. Unlike Refresh this may move the current week backwards.
func (t *Tracker) UpdateSettings(ctx context.Context, s store.Settings) error {
	if s.TotalWeeks < 1 {
		return fmt.Errorf("total weeks must be positive, got %d", s.TotalWeeks)
	}
	s.StartDate = week.Truncate(s.StartDate)
	if err := t.store.SetSettings(ctx, t.uid, s); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	t.mu.Lock()
	t.state = WeekState{
		StartDate:   s.StartDate,
		TotalWeeks:  s.TotalWeeks,
		CurrentWeek: week.CurrentWeek(s.StartDate, t.now(), s.TotalWeeks),
	}
	t.loaded = true
	t.transient = false
	current := t.state.CurrentWeek
	t.mu.Unlock()

	return t.SelectWeek(ctx, current)
}

func (t *Tracker) report(kind NoticeKind, msg string, err error) {
	t.logger.Warn(msg, "kind", string(kind), "error", err)
	t.notify(Notice{Kind: kind, Message: msg, Err: err})
}
