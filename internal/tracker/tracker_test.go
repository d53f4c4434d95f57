package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/store"
)

var errOffline = errors.New("offline")

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeStore wraps the in-memory store, counts writes per date and can be
// told to fail.
type fakeStore struct {
	*store.Memory

	mu           sync.Mutex
	failSettings bool
	failWrites   bool
	failReads    bool
	written      map[string]int
	lastStamp    map[string]time.Time
	subscribed   int
	released     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		Memory:    store.NewMemory(),
		written:   make(map[string]int),
		lastStamp: make(map[string]time.Time),
	}
}

func (f *fakeStore) GetSettings(ctx context.Context, uid string) (*store.Settings, error) {
	f.mu.Lock()
	fail := f.failSettings
	f.mu.Unlock()
	if fail {
		return nil, errOffline
	}
	return f.Memory.GetSettings(ctx, uid)
}

func (f *fakeStore) ReadAttendance(ctx context.Context, uid string, keys []string) (attendance.Snapshot, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return nil, errOffline
	}
	return f.Memory.ReadAttendance(ctx, uid, keys)
}

// WriteAttendance counts a date as written when its entry carries a stamp
// not seen in an earlier write.
func (f *fakeStore) WriteAttendance(ctx context.Context, uid string, entries map[string]attendance.Entry) error {
	f.mu.Lock()
	fail := f.failWrites
	if !fail {
		for k, e := range entries {
			if e.UpdatedAt.IsZero() || e.UpdatedAt.Equal(f.lastStamp[k]) {
				continue
			}
			f.lastStamp[k] = e.UpdatedAt
			f.written[k]++
		}
	}
	f.mu.Unlock()
	if fail {
		return errOffline
	}
	return f.Memory.WriteAttendance(ctx, uid, entries)
}

func (f *fakeStore) Subscribe(ctx context.Context, uid string, keys []string, fn store.SnapshotFunc) (func(), error) {
	unsubscribe, err := f.Memory.Subscribe(ctx, uid, keys, fn)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.subscribed++
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
		unsubscribe()
	}, nil
}

func (f *fakeStore) writes(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written[key]
}

func (f *fakeStore) set(fn func(f *fakeStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// notices collects reported notices.
type notices struct {
	mu   sync.Mutex
	list []Notice
}

func (n *notices) add(x Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, x)
}

func (n *notices) kinds() []NoticeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []NoticeKind
	for _, x := range n.list {
		out = append(out, x.Kind)
	}
	return out
}

func seedSettings(t *testing.T, s store.Store, start time.Time, total int) {
	t.Helper()
	require.NoError(t, s.SetSettings(context.Background(), "u1", store.Settings{StartDate: start, TotalWeeks: total}))
}

func newTracker(t *testing.T, s store.Store, c *clock, opts ...Option) (*Tracker, *notices) {
	t.Helper()
	n := &notices{}
	opts = append([]Option{WithClock(c.Now), WithNotices(n.add)}, opts...)
	tr := New(s, "u1", opts...)
	require.NoError(t, tr.Load(context.Background()))
	t.Cleanup(func() {
		tr.Flush()
		tr.Close()
	})
	return tr, n
}

func TestLoadCreatesSettings(t *testing.T) {
	s := newFakeStore()
	c := &clock{now: at(2024, 9, 4, 10, 0)}

	tr, n := newTracker(t, s, c)

	got, err := s.Memory.GetSettings(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, at(2024, 9, 2, 0, 0), got.StartDate)
	assert.Equal(t, 24, got.TotalWeeks)

	assert.Equal(t, 1, tr.CurrentWeek())
	assert.Equal(t, 1, tr.ViewedWeek())
	assert.False(t, tr.Transient())
	assert.Empty(t, n.kinds())

	days := tr.Days()
	require.Len(t, days, 5)
	assert.Equal(t, "09/02/24", days[0].Key())
	assert.Equal(t, "09/06/24", days[4].Key())
	i, ok := tr.TodayIndex()
	assert.True(t, ok)
	assert.Equal(t, 2, i)
}

func TestLoadCurrentWeek(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{"start date", at(2024, 9, 2, 8, 0), 1},
		{"following monday", at(2024, 9, 9, 8, 0), 2},
		{"past program end", at(2025, 3, 1, 8, 0), 12},
		{"before start", at(2024, 8, 20, 8, 0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeStore()
			seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)

			tr, _ := newTracker(t, s, &clock{now: tt.today})

			assert.Equal(t, tt.want, tr.CurrentWeek())
			assert.Equal(t, tt.want, tr.ViewedWeek())
			assert.Equal(t, 12, tr.State().TotalWeeks)
		})
	}
}

func TestLoadFallsBackWhenSettingsFail(t *testing.T) {
	s := newFakeStore()
	s.failSettings = true
	c := &clock{now: at(2024, 9, 4, 10, 0)}

	tr, n := newTracker(t, s, c)

	assert.True(t, tr.Transient())
	assert.Equal(t, []NoticeKind{NoticeInit}, n.kinds())
	assert.Equal(t, 1, tr.CurrentWeek())
	assert.Equal(t, at(2024, 9, 2, 0, 0), tr.State().StartDate)
	assert.True(t, tr.CanSignIn())

	got, err := s.Memory.GetSettings(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, got, "settings must not be written after a failed read")
}

func TestLoadHydratesFromStore(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
		"09/03/24": {TimeIn: "08:45", TimeOut: "16:30", Activity: "onboarding", UpdatedAt: at(2024, 9, 3, 16, 30)},
	}))

	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 4, 9, 0)})

	days := tr.Days()
	assert.Equal(t, "08:45", days[1].TimeIn)
	assert.Equal(t, "onboarding", days[1].Activity)
	assert.Equal(t, attendance.SignedOut, days[1].State())
	assert.Equal(t, attendance.NotSignedIn, days[2].State())
}

func TestSignOutPersistsOnce(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	c := &clock{now: at(2024, 9, 2, 9, 0)}
	tr, _ := newTracker(t, s, c)

	require.True(t, tr.SignIn(context.Background()))
	tr.Flush()
	assert.Equal(t, 1, s.writes("09/02/24"))

	c.Set(at(2024, 9, 2, 17, 0))
	require.True(t, tr.CanSignOut())
	require.True(t, tr.SignOut(context.Background()))
	tr.Flush()

	assert.False(t, tr.CanSignOut())
	assert.Equal(t, "17:00", tr.Days()[0].TimeOut)
	assert.Equal(t, 2, s.writes("09/02/24"))
	assert.Zero(t, s.writes("09/03/24"))

	assert.False(t, tr.SignOut(context.Background()))
	tr.Flush()
	assert.Equal(t, 2, s.writes("09/02/24"))
	assert.Zero(t, tr.Pending())
}

func TestSignInIsIdempotent(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	c := &clock{now: at(2024, 9, 3, 9, 5)}
	tr, _ := newTracker(t, s, c)

	require.True(t, tr.SignIn(context.Background()))
	c.Set(at(2024, 9, 3, 11, 0))
	assert.False(t, tr.SignIn(context.Background()))
	tr.Flush()

	assert.Equal(t, "09:05", tr.Days()[1].TimeIn)
	assert.Equal(t, 1, s.writes("09/03/24"))
}

func TestSignOutWithoutSignInIsNoop(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 2, 17, 0)})

	assert.False(t, tr.CanSignOut())
	assert.False(t, tr.SignOut(context.Background()))
	tr.Flush()

	assert.Empty(t, tr.Days()[0].TimeOut)
	assert.Zero(t, s.writes("09/02/24"))
}

func TestPersistFailureKeepsLocalState(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	s.failWrites = true
	tr, n := newTracker(t, s, &clock{now: at(2024, 9, 2, 9, 0)})

	require.True(t, tr.SignIn(context.Background()))
	tr.Flush()

	assert.Equal(t, []NoticeKind{NoticePersist}, n.kinds())
	assert.Equal(t, "09:00", tr.Days()[0].TimeIn)
	assert.Equal(t, 1, tr.Pending())
	assert.False(t, tr.CanSignIn())

	// The next mutation writes the whole week again, including the lost change.
	s.set(func(f *fakeStore) { f.failWrites = false })
	require.NoError(t, tr.SetActivity(context.Background(), 0, "pairing"))
	tr.Flush()

	snap, err := s.Memory.ReadAttendance(context.Background(), "u1", []string{"09/02/24"})
	require.NoError(t, err)
	assert.Equal(t, "09:00", snap["09/02/24"].TimeIn)
	assert.Equal(t, "pairing", snap["09/02/24"].Activity)
	assert.Zero(t, tr.Pending())
}

func TestStaleRemoteSnapshotKeepsLocalWrite(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	s.failWrites = true
	c := &clock{now: at(2024, 9, 2, 9, 0)}
	tr, _ := newTracker(t, s, c)

	require.True(t, tr.SignIn(context.Background()))
	c.Set(at(2024, 9, 2, 17, 0))
	require.True(t, tr.SignOut(context.Background()))
	tr.Flush()

	// Another device's older write arrives after the local sign-out.
	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
		"09/02/24": {TimeIn: "09:00", UpdatedAt: at(2024, 9, 2, 9, 0)},
	}))

	day := tr.Days()[0]
	assert.Equal(t, "09:00", day.TimeIn)
	assert.Equal(t, "17:00", day.TimeOut)
	assert.Equal(t, 1, tr.Pending())

	// A newer remote write wins wholesale and confirms the date.
	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
		"09/02/24": {TimeIn: "09:00", TimeOut: "17:00", Activity: "retro", UpdatedAt: at(2024, 9, 2, 17, 30)},
	}))

	day = tr.Days()[0]
	assert.Equal(t, "retro", day.Activity)
	assert.Equal(t, "17:00", day.TimeOut)
	assert.Zero(t, tr.Pending())
}

func TestRemoteChangesForOtherUsersAreIgnored(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 2, 9, 0)})

	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u2", map[string]attendance.Entry{
		"09/02/24": {TimeIn: "07:00", UpdatedAt: at(2024, 9, 2, 7, 0)},
	}))

	assert.Empty(t, tr.Days()[0].TimeIn)
}

func TestSetActivityPolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  attendance.ActivityPolicy
		wantErr error
	}{
		{"block closed days", attendance.PolicyBlockClosed, attendance.ErrDayClosed},
		{"allow all days", attendance.PolicyAllowAll, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeStore()
			seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
			require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
				"09/02/24": {TimeIn: "09:00", TimeOut: "17:00", UpdatedAt: at(2024, 9, 2, 17, 0)},
			}))
			tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 3, 10, 0)}, WithPolicy(tt.policy))

			assert.Equal(t, tt.wantErr == nil, tr.CanEditActivity(0))
			assert.True(t, tr.CanEditActivity(1))

			err := tr.SetActivity(context.Background(), 0, "  code review  ")
			tr.Flush()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tr.Days()[0].Activity)
				assert.Zero(t, s.writes("09/02/24"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "code review", tr.Days()[0].Activity)
			assert.Equal(t, 1, s.writes("09/02/24"))
		})
	}
}

func TestSetActivityUnknownDay(t *testing.T) {
	s := newFakeStore()
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 2, 9, 0)})

	assert.ErrorIs(t, tr.SetActivity(context.Background(), 5, "x"), attendance.ErrNoSuchDay)
	assert.ErrorIs(t, tr.SetActivity(context.Background(), -1, "x"), attendance.ErrNoSuchDay)
	assert.False(t, tr.CanEditActivity(7))
}

func TestSelectWeek(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
		"09/04/24": {TimeIn: "09:00", TimeOut: "12:00", UpdatedAt: at(2024, 9, 4, 12, 0)},
	}))
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 18, 9, 0)})

	assert.Equal(t, 3, tr.CurrentWeek())
	assert.Equal(t, []int{3, 2, 1}, tr.AvailableWeeks())
	assert.True(t, tr.CanSignIn())

	require.NoError(t, tr.SelectWeek(context.Background(), 1))
	assert.Equal(t, 1, tr.ViewedWeek())
	days := tr.Days()
	assert.Equal(t, "09/02/24", days[0].Key())
	assert.Equal(t, "12:00", days[2].TimeOut)

	// Today is not in the viewed week.
	_, ok := tr.TodayIndex()
	assert.False(t, ok)
	assert.False(t, tr.CanSignIn())
	assert.False(t, tr.SignIn(context.Background()))

	for _, n := range []int{0, 4, -1} {
		err := tr.SelectWeek(context.Background(), n)
		assert.ErrorIs(t, err, ErrWeekOutOfRange, "week %d", n)
	}
	assert.Equal(t, 1, tr.ViewedWeek())
}

func TestSelectWeekReleasesSubscription(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 10, 9, 0)})

	require.NoError(t, tr.SelectWeek(context.Background(), 1))
	s.mu.Lock()
	assert.Equal(t, 2, s.subscribed)
	assert.Equal(t, 1, s.released)
	s.mu.Unlock()

	// Changes to the week no longer viewed are not merged.
	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
		"09/10/24": {TimeIn: "08:00", UpdatedAt: at(2024, 9, 10, 8, 0)},
	}))
	for _, d := range tr.Days() {
		assert.Empty(t, d.TimeIn)
	}

	tr.Close()
	s.mu.Lock()
	assert.Equal(t, 2, s.released)
	s.mu.Unlock()
}

func TestSelectWeekKeepsUnconfirmedWrites(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	s.failWrites = true
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 10, 9, 0)})

	require.True(t, tr.SignIn(context.Background()))
	tr.Flush()

	require.NoError(t, tr.SelectWeek(context.Background(), 1))
	require.NoError(t, tr.SelectWeek(context.Background(), 2))

	assert.Equal(t, "09:00", tr.Days()[1].TimeIn)
	assert.False(t, tr.CanSignIn())
}

func TestSelectWeekReadFailure(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	tr, n := newTracker(t, s, &clock{now: at(2024, 9, 10, 9, 0)})

	s.set(func(f *fakeStore) { f.failReads = true })
	require.NoError(t, tr.SelectWeek(context.Background(), 1))

	assert.Equal(t, []NoticeKind{NoticeSync}, n.kinds())
	assert.Equal(t, 1, tr.ViewedWeek())
	assert.Len(t, tr.Days(), 5)
}

func TestRefreshMovesForward(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 3)
	c := &clock{now: at(2024, 9, 6, 9, 0)}
	tr, _ := newTracker(t, s, c)

	assert.Equal(t, 1, tr.Refresh())

	c.Set(at(2024, 9, 9, 9, 0))
	assert.Equal(t, 2, tr.Refresh())
	assert.Equal(t, []int{2, 1}, tr.AvailableWeeks())

	c.Set(at(2024, 12, 1, 9, 0))
	assert.Equal(t, 3, tr.Refresh())

	c.Set(at(2024, 9, 3, 9, 0))
	assert.Equal(t, 3, tr.Refresh())
}

func TestUpdateSettings(t *testing.T) {
	s := newFakeStore()
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 18, 9, 0)})
	require.Equal(t, 1, tr.CurrentWeek())

	require.NoError(t, tr.UpdateSettings(context.Background(), store.Settings{
		StartDate:  at(2024, 9, 2, 13, 0),
		TotalWeeks: 10,
	}))

	assert.Equal(t, 3, tr.CurrentWeek())
	assert.Equal(t, 3, tr.ViewedWeek())
	assert.Equal(t, at(2024, 9, 2, 0, 0), tr.State().StartDate)

	got, err := s.Memory.GetSettings(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalWeeks)

	assert.Error(t, tr.UpdateSettings(context.Background(), store.Settings{StartDate: at(2024, 9, 2, 0, 0)}))
}

func TestSummary(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
		"09/02/24": {TimeIn: "09:00", TimeOut: "17:00", UpdatedAt: at(2024, 9, 2, 17, 0)},
		"09/03/24": {TimeIn: "09:30", TimeOut: "12:00", UpdatedAt: at(2024, 9, 3, 12, 0)},
	}))
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 4, 9, 0)})

	sum := tr.Summary()
	assert.Equal(t, 8*60+150, sum.TotalMinutes)
	assert.Equal(t, 2, sum.DaysAttended)
}

func TestOnChange(t *testing.T) {
	s := newFakeStore()
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)

	var mu sync.Mutex
	calls := 0
	tr, _ := newTracker(t, s, &clock{now: at(2024, 9, 2, 9, 0)}, WithOnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}))
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}
	base := count()

	require.NoError(t, s.Memory.WriteAttendance(context.Background(), "u1", map[string]attendance.Entry{
		"09/03/24": {Activity: "planning", UpdatedAt: at(2024, 9, 2, 8, 0)},
	}))
	assert.Equal(t, base+1, count())
	assert.Equal(t, "planning", tr.Days()[1].Activity)

	require.True(t, tr.SignIn(context.Background()))
	tr.Flush()
	assert.GreaterOrEqual(t, count(), base+2)
}

// heldStore queues change notifications until the test releases them, so
// echoes can be delivered in any order.
type heldStore struct {
	*store.Memory

	mu     sync.Mutex
	fn     store.SnapshotFunc
	echoes []attendance.Snapshot
}

func (h *heldStore) WriteAttendance(ctx context.Context, uid string, entries map[string]attendance.Entry) error {
	if err := h.Memory.WriteAttendance(ctx, uid, entries); err != nil {
		return err
	}
	snap := attendance.Snapshot{}
	for k, e := range entries {
		snap[k] = e
	}
	h.mu.Lock()
	h.echoes = append(h.echoes, snap)
	h.mu.Unlock()
	return nil
}

func (h *heldStore) Subscribe(_ context.Context, _ string, _ []string, fn store.SnapshotFunc) (func(), error) {
	h.mu.Lock()
	h.fn = fn
	h.mu.Unlock()
	return func() {}, nil
}

// deliver hands the queued echoes to the subscriber, the one whose entry for
// key carries stamp first.
func (h *heldStore) deliver(key string, order ...time.Time) {
	h.mu.Lock()
	fn, echoes := h.fn, h.echoes
	h.mu.Unlock()
	for _, stamp := range order {
		for _, snap := range echoes {
			if snap[key].UpdatedAt.Equal(stamp) {
				fn(snap)
			}
		}
	}
}

func TestSignOutSurvivesEchoesOutOfOrder(t *testing.T) {
	s := &heldStore{Memory: store.NewMemory()}
	seedSettings(t, s, at(2024, 9, 2, 0, 0), 12)
	c := &clock{now: at(2024, 9, 2, 9, 0)}
	tr, _ := newTracker(t, s, c)

	require.True(t, tr.SignIn(context.Background()))
	c.Set(at(2024, 9, 2, 17, 0))
	require.True(t, tr.SignOut(context.Background()))
	tr.Flush()

	s.deliver("09/02/24", at(2024, 9, 2, 17, 0), at(2024, 9, 2, 9, 0))

	day := tr.Days()[0]
	assert.Equal(t, "09:00", day.TimeIn)
	assert.Equal(t, "17:00", day.TimeOut)
	assert.Zero(t, tr.Pending())

	stored, err := s.Memory.ReadAttendance(context.Background(), "u1", []string{"09/02/24"})
	require.NoError(t, err)
	assert.Equal(t, "17:00", stored["09/02/24"].TimeOut)
}
