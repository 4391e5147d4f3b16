// Package failure defines the error kinds every operation reports.
// Callers match kinds with errors.Is; the text of each kind is stable so
// scripts can pattern-match on the single line the CLI prints.
package failure

import (
	"errors"

	"github.com/conn-castle/m/internal/messages"
)

var (
	// ErrVersionNotFound means a request matched no entry in the release feed.
	ErrVersionNotFound = errors.New(messages.FailureVersionNotFound)
	// ErrNoStableVersion means the stable subset was empty for the requested scope.
	ErrNoStableVersion = errors.New(messages.FailureNoStableVersion)
	// ErrNotInstalled means the operation needs a version that is not recorded in the store.
	ErrNotInstalled = errors.New(messages.FailureNotInstalled)
	// ErrMissingVersionArgument means a command that needs a version was not given one.
	ErrMissingVersionArgument = errors.New(messages.FailureMissingVersionArgument)
	ErrMissingHookPath        = errors.New(messages.FailureMissingHookPath)
	ErrUnexpectedArgument     = errors.New(messages.FailureUnexpectedArgument)
	ErrInvalidHookEvent       = errors.New(messages.FailureInvalidHookEvent)
	ErrNotAbsolutePath        = errors.New(messages.FailureNotAbsolutePath)
	ErrNotExecutable          = errors.New(messages.FailureNotExecutable)
	ErrHookFailed             = errors.New(messages.FailureHookFailed)
	// ErrTransport covers feed fetch and archive download failures.
	ErrTransport  = errors.New(messages.FailureTransport)
	ErrExtraction = errors.New(messages.FailureExtraction)
)
