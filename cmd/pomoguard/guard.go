package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pomoguard/internal/bootstrap"
)

func newGuardCmd(homePath *string) *cobra.Command {
	guard := &cobra.Command{Use: "guard", Short: "Navigation guard"}
	guard.AddCommand(&cobra.Command{
		Use:   "check <url>",
		Short: "Report whether a URL would be blocked right now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.GuardCLI.Check(context.Background(), args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "host=%s focus=%t blocked=%t", out.Host, out.FocusActive, out.Blocked)
				if out.MatchedSite != "" {
					_, _ = fmt.Fprintf(w, " site=%s", out.MatchedSite)
				}
				if out.Redirect != "" {
					_, _ = fmt.Fprintf(w, " redirect=%s", out.Redirect)
				}
				_, _ = fmt.Fprintln(w)
				return nil
			})
		},
	})
	return guard
}
