// Package terminal provides terminal detection and confirmation prompts.
package terminal

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

var isInteractiveFn = IsInteractive

var runConfirmFunc = func(title string, value *bool) error {
	return huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(value).Run()
}

// IsInteractive reports whether stdin and stdout are both interactive terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Confirm asks a yes/no question on an interactive terminal.
// Non-interactive sessions (scripts, CI) are treated as an implicit yes.
func Confirm(title string) (bool, error) {
	if !isInteractiveFn() {
		return true, nil
	}
	value := true
	if err := runConfirmFunc(title, &value); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return value, nil
}
