// Package dispatch hands the process over to an installed MongoDB binary.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/conn-castle/m/internal/messages"
)

// ErrDispatched signals that execution has been handed off to another binary.
var ErrDispatched = errors.New(messages.DispatchErrDispatched)

// Exec replaces the current process with the binary at path, forwarding args.
// It returns ErrDispatched if execution was handed off.
func Exec(path string, args []string, exit func(int)) error {
	return ExecWithSystem(RealSystem{}, path, args, exit)
}

// ExecWithSystem is Exec against an explicit System.
func ExecWithSystem(sys System, path string, args []string, exit func(int)) error {
	if sys == nil {
		return errors.New(messages.DispatchSystemRequired)
	}
	if exit == nil {
		return errors.New(messages.DispatchExitHandlerRequired)
	}
	execArgs := append([]string{path}, args...)
	if err := sys.ExecBinary(path, execArgs, sys.Environ(), exit); err != nil {
		return fmt.Errorf(messages.DispatchExecFailedFmt, path, err)
	}
	return ErrDispatched
}
