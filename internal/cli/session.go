package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/config"
	"github.com/Flyrell/logbook/internal/store"
	"github.com/Flyrell/logbook/internal/tracker"
)

// getContextPaths returns the directory holding ~/.logbook. LOGBOOK_HOME
// overrides the user's home directory.
func getContextPaths() (string, error) {
	if dir := os.Getenv("LOGBOOK_HOME"); dir != "" {
		return dir, nil
	}
	return os.UserHomeDir()
}

// newLogger writes diagnostics to w. Only errors are shown unless --verbose
// is set; user-facing messages go through the notice printer instead.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// noticePrinter renders tracker notices as warnings. Notices may arrive from
// background writes, so output is serialised.
func noticePrinter(w io.Writer) tracker.NoticeFunc {
	var mu sync.Mutex
	return func(n tracker.Notice) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintf(w, "%s %s\n", Warning("!"), Warning(n.String()))
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// session is an opened store plus a loaded tracker.
type session struct {
	cfg     config.Config
	store   store.Store
	tracker *tracker.Tracker
}

// openSession reads the configuration, opens the configured store and loads
// the tracker for the configured user.
func openSession(cmd *cobra.Command, homeDir string, nowFunc func() time.Time, opts ...tracker.Option) (*session, error) {
	cfg, err := config.Read(homeDir)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(homeDir, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}

	logger := newLogger(cmd.ErrOrStderr()).With("backend", cfg.Backend)
	base := []tracker.Option{
		tracker.WithClock(nowFunc),
		tracker.WithPolicy(cfg.Policy()),
		tracker.WithTotalWeeks(cfg.TotalWeeks),
		tracker.WithLogger(logger),
		tracker.WithNotices(noticePrinter(cmd.ErrOrStderr())),
	}
	tr := tracker.New(s, cfg.User, append(base, opts...)...)
	if err := tr.Load(commandContext(cmd)); err != nil {
		_ = s.Close()
		return nil, err
	}

	return &session{cfg: cfg, store: s, tracker: tr}, nil
}

// selectWeek switches to week n when n is set.
func (s *session) selectWeek(cmd *cobra.Command, n int) error {
	if n == 0 {
		return nil
	}
	return s.tracker.SelectWeek(commandContext(cmd), n)
}

// Close waits for pending writes and releases the store.
func (s *session) Close() error {
	s.tracker.Flush()
	s.tracker.Close()
	return s.store.Close()
}
