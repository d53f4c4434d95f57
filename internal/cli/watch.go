package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Flyrell/logbook/internal/tracker"
)

// refreshInterval is how often watch re-reads the clock so the current week
// and today's row follow midnight.
const refreshInterval = 30 * time.Second

var watchCmd = LeafCommand{
	Use:   "watch",
	Short: "Show the week and follow changes as they happen",
	Args:  cobra.NoArgs,
	IntFlags: []IntFlag{
		{Name: "week", Shorthand: "w", Usage: "program week (default: current week)"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := getContextPaths()
		if err != nil {
			return err
		}
		weekFlag, _ := cmd.Flags().GetInt("week")

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		return runWatch(ctx, cmd, homeDir, weekFlag, time.Now)
	},
}.Build()

// feed carries tracker events to the renderer without ever blocking the
// tracker.
type feed struct {
	changes chan struct{}
	notices chan tracker.Notice
}

func newFeed() *feed {
	return &feed{
		changes: make(chan struct{}, 1),
		notices: make(chan tracker.Notice, 8),
	}
}

func (f *feed) changed() {
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

func (f *feed) notice(n tracker.Notice) {
	select {
	case f.notices <- n:
	default:
	}
}

// runWatch follows the week until ctx is done or the user quits.
func runWatch(ctx context.Context, cmd *cobra.Command, homeDir string, weekFlag int, nowFunc func() time.Time) error {
	f := newFeed()
	sess, err := openSession(cmd, homeDir, nowFunc,
		tracker.WithOnChange(f.changed),
		tracker.WithNotices(f.notice),
	)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	if err := sess.selectWeek(cmd, weekFlag); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if !isTerminal(out) {
		return watchLines(ctx, out, sess.tracker, f, nowFunc)
	}

	m := newWatchModel(ctx, sess.tracker, f)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(out), tea.WithContext(ctx))
	_, err = p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// watchLines prints the week once and again after every change until ctx is
// done.
func watchLines(ctx context.Context, w io.Writer, tr *tracker.Tracker, f *feed, nowFunc func() time.Time) error {
	_, _ = fmt.Fprint(w, renderWeek(viewOf(tr)))

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	current := tr.CurrentWeek()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-f.notices:
			_, _ = fmt.Fprintf(w, "%s %s\n", Warning("!"), Warning(n.String()))
		case <-f.changes:
			_, _ = fmt.Fprintf(w, "\n%s\n", Silent("updated "+nowFunc().Format(timeLayout)))
			_, _ = fmt.Fprint(w, renderWeek(viewOf(tr)))
		case <-ticker.C:
			if n := tr.Refresh(); n != current {
				current = n
				_, _ = fmt.Fprintf(w, "\n%s\n", Info(fmt.Sprintf("week %d has started", n)))
			}
		}
	}
}

const timeLayout = "15:04:05"
