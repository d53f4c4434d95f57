package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execSignIn(homeDir string, now func() time.Time) (string, error) {
	cmd, stdout, _ := newTestCmd()
	err := runSignIn(cmd, homeDir, now)
	return stdout.String(), err
}

func TestSignIn(t *testing.T) {
	homeDir := setupHome(t)

	out, err := execSignIn(homeDir, mockNow(at(2024, 9, 2, 8, 55)))

	require.NoError(t, err)
	assert.Contains(t, out, "signed in at 08:55 on Mon 09/02/24")
}

func TestSignInTwice(t *testing.T) {
	homeDir := setupHome(t)
	_, err := execSignIn(homeDir, mockNow(at(2024, 9, 2, 8, 55)))
	require.NoError(t, err)

	out, err := execSignIn(homeDir, mockNow(at(2024, 9, 2, 10, 0)))

	require.NoError(t, err)
	assert.Contains(t, out, "already signed in at 08:55")
}

func TestSignInOnWeekend(t *testing.T) {
	homeDir := setupHome(t)

	out, err := execSignIn(homeDir, mockNow(at(2024, 9, 7, 10, 0)))

	require.NoError(t, err)
	assert.Contains(t, out, "not a workday")
}
