package cli

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Flyrell/logbook/internal/tracker"
)

var (
	footerStyle = lipgloss.NewStyle().Faint(true)
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
)

type (
	changedMsg struct{}
	noticeMsg  tracker.Notice
	refreshMsg time.Time
)

type watchModel struct {
	ctx     context.Context
	tracker *tracker.Tracker
	feed    *feed
	view    weekView
	notice  string // last notice, dismissed with x
	status  string // result of the last key action
}

func newWatchModel(ctx context.Context, tr *tracker.Tracker, f *feed) watchModel {
	return watchModel{ctx: ctx, tracker: tr, feed: f, view: viewOf(tr)}
}

func waitForChange(f *feed) tea.Cmd {
	return func() tea.Msg {
		<-f.changes
		return changedMsg{}
	}
}

func waitForNotice(f *feed) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-f.notices)
	}
}

func refreshEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.feed), waitForNotice(m.feed), refreshEvery(refreshInterval))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.view = viewOf(m.tracker)
		return m, waitForChange(m.feed)
	case noticeMsg:
		m.notice = tracker.Notice(msg).String()
		return m, waitForNotice(m.feed)
	case refreshMsg:
		m.tracker.Refresh()
		m.view = viewOf(m.tracker)
		return m, refreshEvery(refreshInterval)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "i":
		if m.tracker.SignIn(m.ctx) {
			m.status = "signed in"
		} else {
			m.status = "cannot sign in now"
		}
	case "o":
		if m.tracker.SignOut(m.ctx) {
			m.status = "signed out"
		} else {
			m.status = "cannot sign out now"
		}
	case "left", "h":
		m.status = m.moveWeek(-1)
	case "right", "l":
		m.status = m.moveWeek(1)
	case "x":
		m.notice = ""
		m.status = ""
	}
	m.view = viewOf(m.tracker)
	return m, nil
}

// moveWeek steps the viewed week by delta, staying within the available range.
func (m watchModel) moveWeek(delta int) string {
	n := m.tracker.ViewedWeek() + delta
	if n < 1 || n > m.tracker.CurrentWeek() {
		return "no more weeks that way"
	}
	if err := m.tracker.SelectWeek(m.ctx, n); err != nil {
		return err.Error()
	}
	return ""
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(renderWeek(m.view))
	if m.notice != "" {
		b.WriteString("\n" + Warning("! "+m.notice))
	}
	if m.status != "" {
		b.WriteString("\n" + Info(m.status))
	}
	b.WriteString("\n" + footerStyle.Render("i sign in · o sign out · ←/→ week · x dismiss · q quit"))
	return frameStyle.Render(b.String())
}
