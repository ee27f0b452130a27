package in

import (
	"context"

	"pomoguard/internal/modules/timer/dto"
)

// Query is the read side other modules depend on.
type Query interface {
	GetState(ctx context.Context) (dto.StateOutput, error)
}

type Usecase interface {
	Query
	Dispatch(ctx context.Context, input dto.CommandInput) (dto.CommandOutput, error)
	Start(ctx context.Context, input dto.StartInput) (dto.CommandOutput, error)
	Pause(ctx context.Context) (dto.CommandOutput, error)
	Resume(ctx context.Context) (dto.CommandOutput, error)
	Reset(ctx context.Context) (dto.CommandOutput, error)
	ResetCount(ctx context.Context) (dto.CommandOutput, error)
	// Subscribe streams state updates; it only yields inside the daemon process.
	Subscribe(ctx context.Context, buffer int) (<-chan dto.StateOutput, func())
	History(ctx context.Context, limit int) ([]dto.HistoryOutput, error)

	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
}
