package in

import (
	"context"

	"pomoguard/internal/modules/timer/dto"
	timerin "pomoguard/internal/modules/timer/port/in"
)

type CLIHandler struct {
	usecase timerin.Usecase
}

func NewCLIHandler(usecase timerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) RunDaemon(ctx context.Context) error {
	return h.usecase.RunDaemon(ctx)
}

func (h CLIHandler) StartDaemon(ctx context.Context) error {
	return h.usecase.StartDaemon(ctx)
}

func (h CLIHandler) StopDaemon(ctx context.Context) error {
	return h.usecase.StopDaemon(ctx)
}

func (h CLIHandler) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	return h.usecase.DaemonStatus(ctx)
}

func (h CLIHandler) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return h.usecase.DaemonLogs(ctx, tail)
}

func (h CLIHandler) State(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.GetState(ctx)
}

func (h CLIHandler) Start(ctx context.Context, focusMinutes, breakMinutes int) (dto.CommandOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{FocusMinutes: focusMinutes, BreakMinutes: breakMinutes})
}

func (h CLIHandler) Pause(ctx context.Context) (dto.CommandOutput, error) {
	return h.usecase.Pause(ctx)
}

func (h CLIHandler) Resume(ctx context.Context) (dto.CommandOutput, error) {
	return h.usecase.Resume(ctx)
}

func (h CLIHandler) Reset(ctx context.Context) (dto.CommandOutput, error) {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) ResetCount(ctx context.Context) (dto.CommandOutput, error) {
	return h.usecase.ResetCount(ctx)
}

func (h CLIHandler) Dispatch(ctx context.Context, input dto.CommandInput) (dto.CommandOutput, error) {
	return h.usecase.Dispatch(ctx, input)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.HistoryOutput, error) {
	return h.usecase.History(ctx, limit)
}
