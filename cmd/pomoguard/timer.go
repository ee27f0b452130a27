package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pomoguard/internal/bootstrap"
	timerdto "pomoguard/internal/modules/timer/dto"
)

const watchInterval = time.Second

func newTimerCmds(homePath *string) []*cobra.Command {
	var focus, brk int
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a focus session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				out, err := app.TimerCLI.Start(context.Background(), focus, brk)
				return printCommand(cmd, out, err)
			})
		},
	}
	start.Flags().IntVar(&focus, "focus", 0, "focus minutes (0 keeps the saved value)")
	start.Flags().IntVar(&brk, "break", 0, "break minutes (0 keeps the saved value)")

	simple := func(use, short string, call func(app *bootstrap.App) (timerdto.CommandOutput, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(*homePath, func(app *bootstrap.App) error {
					out, err := call(app)
					return printCommand(cmd, out, err)
				})
			},
		}
	}

	state := &cobra.Command{
		Use:   "state",
		Short: "Show the current timer state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				st, err := app.TimerCLI.State(context.Background())
				if err != nil {
					return err
				}
				printState(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print the timer state every second until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				ctx, stop := signalContext()
				defer stop()
				return watchState(ctx, cmd, app)
			})
		},
	}

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List completed phases, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				records, err := app.TimerCLI.History(context.Background(), limit)
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "records to show")

	return []*cobra.Command{
		start,
		simple("pause", "Pause the running session", func(app *bootstrap.App) (timerdto.CommandOutput, error) {
			return app.TimerCLI.Pause(context.Background())
		}),
		simple("resume", "Resume a paused session", func(app *bootstrap.App) (timerdto.CommandOutput, error) {
			return app.TimerCLI.Resume(context.Background())
		}),
		simple("reset", "Stop and return to a fresh focus phase", func(app *bootstrap.App) (timerdto.CommandOutput, error) {
			return app.TimerCLI.Reset(context.Background())
		}),
		simple("reset-count", "Zero the completed pomodoro count", func(app *bootstrap.App) (timerdto.CommandOutput, error) {
			return app.TimerCLI.ResetCount(context.Background())
		}),
		state,
		watch,
		history,
	}
}

func watchState(ctx context.Context, cmd *cobra.Command, app *bootstrap.App) error {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	var last timerdto.StateOutput
	first := true
	for {
		st, err := app.TimerCLI.State(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		case first || st != last:
			printState(cmd.OutOrStdout(), st)
			last, first = st, false
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printCommand(cmd *cobra.Command, out timerdto.CommandOutput, err error) error {
	if err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("command was not applied")
	}
	printState(cmd.OutOrStdout(), out.State)
	return nil
}
