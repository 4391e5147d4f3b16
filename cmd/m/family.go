package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/render"
	"github.com/conn-castle/m/internal/version"
)

// addFamilyCommands attaches the version management subcommands for f.
func addFamilyCommands(parent *cobra.Command, f family.Family) {
	parent.AddCommand(
		newLsCmd(f),
		newInstalledCmd(f),
		newReinstallCmd(f),
		newRmCmd(f),
		newActivateCmd(f),
		newBinCmd(f),
	)
}

func newLsCmd(f family.Family) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     messages.LsUse,
		Aliases: []string{messages.LsAliasList, messages.LsAliasAv, messages.LsAliasAvl},
		Short:   messages.LsShort,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			series := ""
			if len(args) > 0 {
				series = args[0]
			}
			versions, err := a.resolver.Available(cmd.Context(), f, series)
			if err != nil {
				return err
			}
			entries, err := a.engine.Store(f).List()
			if err != nil {
				return err
			}
			return render.Available(cmd.OutOrStdout(), versions, entries, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, messages.LsJSONFlag)
	return cmd
}

func newInstalledCmd(f family.Family) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     messages.InstalledUse,
		Aliases: []string{messages.InstalledAlias},
		Short:   messages.InstalledShort,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			entries, err := a.engine.Store(f).List()
			if err != nil {
				return err
			}
			return render.Installed(cmd.OutOrStdout(), entries, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, messages.InstalledJSONFlag)
	return cmd
}

func newReinstallCmd(f family.Family) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ReinstallUse,
		Short: messages.ReinstallShort,
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
			_, err = a.engine.Reinstall(cmd.Context(), f, req)
			return err
		},
	}
}

func newRmCmd(f family.Family) *cobra.Command {
	return &cobra.Command{
		Use:     messages.RmUse,
		Aliases: []string{messages.RmAlias, messages.RmAliasUn},
		Short:   messages.RmShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return failure.ErrMissingVersionArgument
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.engine.Remove(cmd.Context(), f, args...)
		},
	}
}

func newActivateCmd(f family.Family) *cobra.Command {
	return &cobra.Command{
		Use:   messages.ActivateUse,
		Short: fmt.Sprintf(messages.ActivateShortFmt, f.Display()),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return failure.ErrMissingVersionArgument
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			_, err = a.engine.Activate(cmd.Context(), f, args[0])
			return err
		},
	}
}

func newBinCmd(f family.Family) *cobra.Command {
	return &cobra.Command{
		Use:     messages.BinUse,
		Aliases: []string{messages.BinAlias},
		Short:   fmt.Sprintf(messages.BinShortFmt, f.Display()),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			dir, err := a.engine.BinDir(f, firstArg(args))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dir)
			return err
		},
	}
}
