package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/m/internal/family"
	"github.com/conn-castle/m/internal/hooks"
	"github.com/conn-castle/m/internal/messages"
	"github.com/conn-castle/m/internal/render"
	"github.com/conn-castle/m/internal/version"
)

// selectFlags are the --latest/--stable switches shared by the root and family commands.
type selectFlags struct {
	latest bool
	stable bool
}

func (s *selectFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.latest, "latest", false, messages.RootLatestFlag)
	cmd.Flags().BoolVar(&s.stable, "stable", false, messages.RootStableFlag)
}

func newRootCmd() *cobra.Command {
	sel := &selectFlags{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		Args:          cobra.MaximumNArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFamilyDefault(cmd, family.Server, sel, args)
		},
	}
	cmd.Flags().BoolP("version", "V", false, messages.RootVersionFlag)
	sel.bind(cmd)

	addFamilyCommands(cmd, family.Server)
	cmd.AddCommand(
		newRunCmd(messages.UseUse, messages.UseShort, nil, family.Server, "mongod"),
		newRunCmd(messages.ShardUse, messages.ShardShort, nil, family.Server, "mongos"),
		newRunCmd(messages.ShellUse, messages.ShellShort, []string{messages.ShellAliasS, messages.ShellAliasMongo}, family.ModernShell, family.ModernShell.PrimaryBinary()),
		newSrcCmd(),
		newFamilyCmd(messages.FamilyToolsName, nil, family.Tools),
		newFamilyCmd(messages.FamilyMongoshName, nil, family.ModernShell),
		newFamilyCmd(messages.FamilyLegacyName, []string{family.LegacyShell.String()}, family.LegacyShell),
		newHookCmd(hooks.Pre),
		newHookCmd(hooks.Post),
	)
	return cmd
}

// newFamilyCmd scopes the version commands to one non-server family.
func newFamilyCmd(name string, aliases []string, f family.Family) *cobra.Command {
	sel := &selectFlags{}
	cmd := &cobra.Command{
		Use:     fmt.Sprintf(messages.FamilyUseFmt, name),
		Aliases: aliases,
		Short:   fmt.Sprintf(messages.FamilyShortFmt, f.Display()),
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFamilyDefault(cmd, f, sel, args)
		},
	}
	sel.bind(cmd)
	addFamilyCommands(cmd, f)
	return cmd
}

// runFamilyDefault prints a resolution, lists installed versions, or
// installs, depending on flags and arguments.
func runFamilyDefault(cmd *cobra.Command, f family.Family, sel *selectFlags, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case sel.latest || sel.stable:
		token := version.TokenLatest
		if sel.stable {
			token = version.TokenStable
		}
		req, err := version.ParseRequest(append([]string{token}, args...)...)
		if err != nil {
			return err
		}
		v, err := a.resolver.Resolve(cmd.Context(), f, req)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, v.Raw)
		return err
	case len(args) == 0:
		entries, err := a.engine.Store(f).List()
		if err != nil {
			return err
		}
		return render.Installed(out, entries, false)
	default:
		req, err := version.ParseRequest(args...)
		if err != nil {
			return err
		}
		_, err = a.engine.Install(cmd.Context(), f, req)
		return err
	}
}
