package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"pomoguard/internal/bootstrap"
	"pomoguard/internal/platform/config"
	"pomoguard/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var homePath string

	root := &cobra.Command{
		Use:           "pomoguard",
		Short:         "Pomodoro timer with a focus-time site guard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&homePath, "home", config.DefaultHome(), "state directory")

	root.AddCommand(newTUICmd(&homePath))
	root.AddCommand(newDaemonCmd(&homePath))
	root.AddCommand(newTimerCmds(&homePath)...)
	root.AddCommand(newSettingsCmd(&homePath))
	root.AddCommand(newGuardCmd(&homePath))
	return root
}

// loadApp builds the application. Daemon processes log to stdout, which the
// parent redirects into the daemon log file; everything else logs to stderr.
func loadApp(homePath string, logOut io.Writer) (*bootstrap.App, error) {
	cfg, err := config.Load(homePath)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		Output:      logOut,
	})
	for _, w := range cfg.Warnings {
		log.Warn("config", logger.String("warning", w))
	}
	return bootstrap.New(cfg, log)
}

func withApp(homePath string, fn func(app *bootstrap.App) error) error {
	app, err := loadApp(homePath, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newTUICmd(homePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("tui needs an interactive terminal")
			}
			return withApp(*homePath, bootstrap.RunTUI)
		},
	}
}

func newDaemonCmd(homePath *string) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the timer daemon"}

	runForeground := func(_ *cobra.Command, _ []string) error {
		app, err := loadApp(*homePath, os.Stdout)
		if err != nil {
			return err
		}
		defer app.Close()
		ctx, stop := signalContext()
		defer stop()
		return app.TimerCLI.RunDaemon(ctx)
	}
	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE:  runForeground,
	})
	daemon.AddCommand(&cobra.Command{
		Use:    "__run",
		Hidden: true,
		RunE:   runForeground,
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				if err := app.TimerCLI.StartDaemon(context.Background()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				if err := app.TimerCLI.StopDaemon(context.Background()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				status, err := app.TimerCLI.DaemonStatus(context.Background())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "running=%t pid=%d socket=%s\n", status.Running, status.PID, status.SocketPath)
				if status.HasState {
					_, _ = fmt.Fprintf(out, "initialized=%t http=%s subscribers=%d started=%s\n",
						status.Initialized, status.HTTPAddr, status.Subscribers, status.StartedAt.Format("2006-01-02 15:04:05"))
					printState(out, status.State)
				}
				return nil
			})
		},
	})
	var tail int
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*homePath, func(app *bootstrap.App) error {
				payload, err := app.TimerCLI.DaemonLogs(context.Background(), tail)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), payload)
				return nil
			})
		},
	}
	logs.Flags().IntVar(&tail, "tail", 200, "log lines to show from the end")
	daemon.AddCommand(logs)
	return daemon
}
