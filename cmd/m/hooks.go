package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/hooks"
	"github.com/conn-castle/m/internal/messages"
)

// newHookCmd manages the hooks for one event:
//
//	m pre install            list
//	m pre install /path      add
//	m pre install rm /path   remove
func newHookCmd(event hooks.Event) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf(messages.HookUseFmt, event),
		Short: fmt.Sprintf(messages.HookShortFmt, event),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := hooks.ParsePhase(firstArg(args))
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case len(args) == 1:
				paths, err := a.hooks.List(event, phase)
				if err != nil {
					return err
				}
				if len(paths) == 0 {
					_, err = fmt.Fprintln(out, messages.HookNoneRegistered)
					return err
				}
				for _, path := range paths {
					if _, err := fmt.Fprintf(out, messages.HookListLineFmt, path); err != nil {
						return err
					}
				}
				return nil
			case args[1] == messages.HookRmToken:
				if len(args) < 3 {
					return failure.ErrMissingHookPath
				}
				for _, path := range args[2:] {
					removed, err := a.hooks.Remove(event, phase, path)
					if err != nil {
						return err
					}
					format := messages.HookRemovedFmt
					if !removed {
						format = messages.HookRemoveMissedFmt
					}
					_, _ = fmt.Fprintf(out, format, event, phase, path)
				}
				return nil
			default:
				for _, path := range args[1:] {
					added, err := a.hooks.Add(event, phase, path)
					if err != nil {
						return err
					}
					format := messages.HookAddedFmt
					if !added {
						format = messages.HookUnchangedFmt
					}
					_, _ = fmt.Fprintf(out, format, event, phase, path)
				}
				return nil
			}
		},
	}
}
