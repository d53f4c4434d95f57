package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Flyrell/logbook/internal/config"
	"github.com/Flyrell/logbook/internal/store"
)

// programStart is the Monday of week 1 in every CLI test.
var programStart = time.Date(2024, 9, 2, 0, 0, 0, 0, time.Local)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.Local)
}

func mockNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// setupHome writes a config for user "jane" on the file backend and seeds a
// twelve-week program starting on programStart.
func setupHome(t *testing.T) string {
	t.Helper()
	t.Setenv("LOGBOOK_USER", "")
	t.Setenv("LOGBOOK_BACKEND", "")
	t.Setenv("LOGBOOK_REDIS_ADDR", "")

	homeDir := t.TempDir()
	cfg := config.Default(homeDir)
	cfg.User = "jane"
	require.NoError(t, config.Write(homeDir, cfg))

	s := store.NewFile(config.Dir(homeDir))
	require.NoError(t, s.SetSettings(context.Background(), "jane", store.Settings{StartDate: programStart, TotalWeeks: 12}))
	return homeDir
}

func setConfig(t *testing.T, homeDir, key, value string) {
	t.Helper()
	cfg, err := config.ReadFile(homeDir)
	require.NoError(t, err)
	require.NoError(t, cfg.Set(key, value))
	require.NoError(t, config.Write(homeDir, cfg))
}

// newTestCmd returns a command whose output is captured.
func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetContext(context.Background())
	return cmd, stdout, stderr
}

// scriptedKit answers prompts from fixed values and records the questions.
type scriptedKit struct {
	answer    string
	selection int
	confirm   bool
	asked     []string
}

func (k *scriptedKit) kit() PromptKit {
	return PromptKit{
		Prompt: func(prompt, initial string) (string, error) {
			k.asked = append(k.asked, prompt)
			return k.answer, nil
		},
		Confirm: func(prompt string) (bool, error) {
			k.asked = append(k.asked, prompt)
			return k.confirm, nil
		},
		Select: func(title string, options []string) (int, error) {
			k.asked = append(k.asked, title)
			return k.selection, nil
		},
	}
}
