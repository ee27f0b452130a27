package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pomoguard/internal/bootstrap"
	settingsdto "pomoguard/internal/modules/settings/dto"
)

func newSettingsCmd(homePath *string) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Durations and blocked sites"}

	settings.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show saved settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.Show(context.Background())
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), out)
				return nil
			})
		},
	})

	var focus, brk int
	set := &cobra.Command{
		Use:   "set",
		Short: "Change focus or break minutes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var focusPtr, breakPtr *int
			if cmd.Flags().Changed("focus") {
				focusPtr = &focus
			}
			if cmd.Flags().Changed("break") {
				breakPtr = &brk
			}
			if focusPtr == nil && breakPtr == nil {
				return fmt.Errorf("--focus or --break is required")
			}
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.SetDurations(context.Background(), focusPtr, breakPtr)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	set.Flags().IntVar(&focus, "focus", 0, "focus minutes")
	set.Flags().IntVar(&brk, "break", 0, "break minutes")
	settings.AddCommand(set)

	var force bool
	install := &cobra.Command{
		Use:   "install",
		Short: "Seed default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.Install(context.Background(), force)
				if err != nil {
					return err
				}
				if out.Seeded {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "defaults written")
				} else {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "settings already present")
				}
				return nil
			})
		},
	}
	install.Flags().BoolVar(&force, "force", false, "overwrite existing settings")
	settings.AddCommand(install)

	settings.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write settings as YAML to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				if len(args) == 0 {
					return app.SettingsCLI.Export(context.Background(), cmd.OutOrStdout())
				}
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				if err := app.SettingsCLI.Export(context.Background(), f); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	})
	settings.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Load settings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.Import(context.Background(), f)
				if err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), out)
				return nil
			})
		},
	})

	settings.AddCommand(newSitesCmd(homePath))
	return settings
}

func newSitesCmd(homePath *string) *cobra.Command {
	sites := &cobra.Command{Use: "sites", Short: "Manage the blocked site list"}

	sites.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blocked sites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.Show(context.Background())
				if err != nil {
					return err
				}
				if len(out.BlockedSites) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no blocked sites")
					return nil
				}
				for _, site := range out.BlockedSites {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), site)
				}
				return nil
			})
		},
	})
	sites.AddCommand(&cobra.Command{
		Use:   "add <site>...",
		Short: "Block one or more sites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.AddSites(context.Background(), args)
				if err != nil {
					return err
				}
				printSites(cmd, out)
				return nil
			})
		},
	})
	sites.AddCommand(&cobra.Command{
		Use:   "remove <site>",
		Short: "Unblock a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.RemoveSite(context.Background(), args[0])
				if err != nil {
					return err
				}
				printSites(cmd, out)
				return nil
			})
		},
	})
	sites.AddCommand(&cobra.Command{
		Use:   "replace <site>...",
		Short: "Replace the whole blocked list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.SettingsCLI.ReplaceSites(context.Background(), args)
				if err != nil {
					return err
				}
				printSites(cmd, out)
				return nil
			})
		},
	})
	return sites
}

func printSites(cmd *cobra.Command, out settingsdto.SitesOutput) {
	w := cmd.OutOrStdout()
	for _, site := range out.Added {
		_, _ = fmt.Fprintf(w, "added %s\n", site)
	}
	for _, raw := range out.Rejected {
		_, _ = fmt.Fprintf(w, "rejected %q\n", raw)
	}
	_, _ = fmt.Fprintf(w, "blocked sites: %d\n", len(out.BlockedSites))
}
