package out

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"pomoguard/internal/modules/timer/domain"
	timerout "pomoguard/internal/modules/timer/port/out"
	"pomoguard/internal/platform/logger"
)

const notifyTimeout = 3 * time.Second

// CommandRunner runs an external notifier binary.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// LogNotifier only records notifications in the log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) timerout.Notifier {
	return &LogNotifier{log: log.With(logger.Component("timer.notifier"))}
}

func (n *LogNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.log.Info("notification",
		logger.String("id", note.ID),
		logger.String("title", note.Title),
		logger.String("message", note.Message),
	)
	return nil
}

// DesktopNotifier shows a system notification through notify-send or
// osascript. Notifications sharing an ID replace each other where the
// notification server supports it.
type DesktopNotifier struct {
	goos string
	run  CommandRunner
	log  logger.Logger

	once        sync.Once
	unavailable bool
}

func NewDesktopNotifier(log logger.Logger) timerout.Notifier {
	return NewDesktopNotifierWithRunner(runtime.GOOS, execRunner, log)
}

func NewDesktopNotifierWithRunner(goos string, run CommandRunner, log logger.Logger) *DesktopNotifier {
	return &DesktopNotifier{goos: goos, run: run, log: log.With(logger.Component("timer.notifier"))}
}

func (n *DesktopNotifier) Notify(ctx context.Context, note domain.Notification) error {
	n.log.Info("notification",
		logger.String("id", note.ID),
		logger.String("title", note.Title),
	)
	if n.unavailable {
		return nil
	}
	name, args, ok := desktopCommand(n.goos, note)
	if !ok {
		n.once.Do(func() {
			n.unavailable = true
			n.log.Warn("desktop notifications unsupported", logger.String("goos", n.goos))
		})
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	return n.run(ctx, name, args...)
}

func desktopCommand(goos string, note domain.Notification) (string, []string, bool) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return "notify-send", []string{
			"--app-name=pomoguard",
			"--hint=string:x-canonical-private-synchronous:" + note.ID,
			note.Title,
			note.Message,
		}, true
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", note.Message, note.Title)
		return "osascript", []string{"-e", script}, true
	default:
		return "", nil, false
	}
}
