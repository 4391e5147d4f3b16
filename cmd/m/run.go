package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/feed"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/version"
)

// newRunCmd hands the process over to binary from an installed version of f.
// Everything after the version is forwarded untouched.
func newRunCmd(use string, short string, aliases []string, f family.Family, binary string) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		Aliases:            aliases,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := firstArg(args)
			passArgs := []string{}
			if len(args) > 1 {
				passArgs = stripArgsSeparator(args[1:])
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			path, err := a.engine.Locate(f, raw, binary)
			if err != nil {
				return err
			}
			a.log.Debug(messages.AppExecBinary, "path", path, "args", passArgs)
			return execFunc(path, passArgs, exitFunc)
		},
	}
}

func newSrcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.SrcUse,
		Short: messages.SrcShort,
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := version.ParseRequest(args...)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			v := req.Target
			if req.Kind != version.KindExact {
				v, err = a.resolver.Resolve(cmd.Context(), family.Server, req)
				if err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), feed.SourceURL(a.cfg.SourceURL, v))
			return err
		},
	}
}
