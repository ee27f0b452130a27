package out

import (
	"context"
	"time"

	"pomoguard/internal/modules/timer/domain"
)

type SnapshotStore interface {
	// LoadSnapshot reports ok=false when nothing usable is stored.
	LoadSnapshot(ctx context.Context) (snap domain.Snapshot, ok bool, err error)
	SaveSnapshot(ctx context.Context, snap domain.Snapshot) error
	LoadCount(ctx context.Context) (int, error)
	SaveCount(ctx context.Context, count int) error
}

type SettingsReader interface {
	Durations(ctx context.Context) (focusMinutes, breakMinutes int, err error)
}

type Installer interface {
	Install(ctx context.Context) (seeded bool, err error)
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type Badge interface {
	Update(ctx context.Context, text, color string) error
}

type HistoryStore interface {
	Append(ctx context.Context, record domain.PhaseRecord) error
	List(ctx context.Context, limit int) ([]domain.PhaseRecord, error)
}

type Metrics interface {
	CommandHandled(action string)
	PhaseCompleted(phase string)
	StoreFailed(op string)
	BroadcastDropped(n int)
	TimeLeft(phase string, seconds int)
	Subscribers(n int)
}

// Component is a long-running piece the daemon supervises next to the IPC server.
type Component interface {
	Name() string
	Run(ctx context.Context) error
}

type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	SocketPath() string
	LogPath() string
}

type DaemonStatus struct {
	Initialized bool
	StartedAt   time.Time
	HTTPAddr    string
	Subscribers int
	State       domain.View
}

type DaemonRuntimeStatus struct {
	Running    bool
	PID        int
	SocketPath string
	Status     DaemonStatus
	HasStatus  bool
}

type IPCHandler interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, error)
	Status(ctx context.Context) (DaemonStatus, error)
	Stop(ctx context.Context) error
}

type IPCServer interface {
	Serve(ctx context.Context, socketPath string, handler IPCHandler) error
}

// IPCClient wraps dial failures in apperrors.ErrDaemonUnavailable.
type IPCClient interface {
	Dispatch(ctx context.Context, socketPath string, cmd domain.Command) (domain.Response, error)
	Status(ctx context.Context, socketPath string) (DaemonStatus, error)
	Stop(ctx context.Context, socketPath string) error
}
