package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportWritesPDF(t *testing.T) {
	homeDir := setupHome(t)
	_, err := execSignIn(homeDir, mockNow(at(2024, 9, 2, 9, 0)))
	require.NoError(t, err)
	_, err = execSignOut(homeDir, mockNow(at(2024, 9, 2, 17, 0)))
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "week.pdf")
	cmd, stdout, _ := newTestCmd()

	err = runExport(cmd, homeDir, 1, output, mockNow(at(2024, 9, 10, 10, 0)))

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "exported week 1 to")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, len(data) > 4 && string(data[:4]) == "%PDF", "output is not a PDF")
}

func TestExportDefaultFileName(t *testing.T) {
	homeDir := setupHome(t)
	t.Chdir(t.TempDir())
	cmd, stdout, _ := newTestCmd()

	err := runExport(cmd, homeDir, 0, "", mockNow(at(2024, 9, 3, 10, 0)))

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "logbook-jane-week-01.pdf")
	_, err = os.Stat("logbook-jane-week-01.pdf")
	assert.NoError(t, err)
}
