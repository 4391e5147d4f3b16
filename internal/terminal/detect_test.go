package terminal

import (
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInteractive(t *testing.T) {
	// Depends on the environment; only verify it runs.
	_ = IsInteractive()
}

func withPrompt(t *testing.T, interactive bool, run func(string, *bool) error) {
	t.Helper()
	origInteractive, origRun := isInteractiveFn, runConfirmFunc
	t.Cleanup(func() {
		isInteractiveFn, runConfirmFunc = origInteractive, origRun
	})
	isInteractiveFn = func() bool { return interactive }
	runConfirmFunc = run
}

func TestConfirm_NonInteractiveIsYes(t *testing.T) {
	withPrompt(t, false, func(string, *bool) error {
		t.Fatal("prompt must not run without a terminal")
		return nil
	})
	ok, err := Confirm("Install?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirm_Answers(t *testing.T) {
	var gotTitle string
	withPrompt(t, true, func(title string, value *bool) error {
		gotTitle = title
		*value = false
		return nil
	})
	ok, err := Confirm("Install?")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Install?", gotTitle)
}

func TestConfirm_AbortIsNo(t *testing.T) {
	withPrompt(t, true, func(string, *bool) error { return huh.ErrUserAborted })
	ok, err := Confirm("Install?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirm_Error(t *testing.T) {
	withPrompt(t, true, func(string, *bool) error { return errors.New("tty gone") })
	_, err := Confirm("Install?")
	assert.EqualError(t, err, "tty gone")
}
