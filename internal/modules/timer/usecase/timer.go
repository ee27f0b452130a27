package usecase

import (
	"context"

	"pomoguard/internal/modules/timer/domain"
	"pomoguard/internal/modules/timer/dto"
	timerin "pomoguard/internal/modules/timer/port/in"
	timerout "pomoguard/internal/modules/timer/port/out"
)

type servicePort interface {
	Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, error)
	State(ctx context.Context) (domain.View, error)
	Subscribe(buffer int) (<-chan domain.View, func())
	History(ctx context.Context, limit int) ([]domain.PhaseRecord, error)
	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (timerout.DaemonRuntimeStatus, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
}

type Interactor struct {
	svc servicePort
}

func NewInteractor(svc servicePort) timerin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) GetState(ctx context.Context) (dto.StateOutput, error) {
	view, err := i.svc.State(ctx)
	if err != nil {
		return dto.StateOutput{}, err
	}
	return mapView(view), nil
}

func (i *Interactor) Dispatch(ctx context.Context, input dto.CommandInput) (dto.CommandOutput, error) {
	action, err := domain.ParseAction(input.Action)
	if err != nil {
		return dto.CommandOutput{}, err
	}
	return i.dispatch(ctx, domain.Command{
		Action:       action,
		FocusMinutes: input.FocusMinutes,
		BreakMinutes: input.BreakMinutes,
	})
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.CommandOutput, error) {
	return i.dispatch(ctx, domain.Command{
		Action:       domain.ActionStart,
		FocusMinutes: input.FocusMinutes,
		BreakMinutes: input.BreakMinutes,
	})
}

func (i *Interactor) Pause(ctx context.Context) (dto.CommandOutput, error) {
	return i.dispatch(ctx, domain.Command{Action: domain.ActionPause})
}

func (i *Interactor) Resume(ctx context.Context) (dto.CommandOutput, error) {
	return i.dispatch(ctx, domain.Command{Action: domain.ActionResume})
}

func (i *Interactor) Reset(ctx context.Context) (dto.CommandOutput, error) {
	return i.dispatch(ctx, domain.Command{Action: domain.ActionReset})
}

func (i *Interactor) ResetCount(ctx context.Context) (dto.CommandOutput, error) {
	return i.dispatch(ctx, domain.Command{Action: domain.ActionResetCount})
}

func (i *Interactor) Subscribe(ctx context.Context, buffer int) (<-chan dto.StateOutput, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	views, cancel := i.svc.Subscribe(buffer)
	out := make(chan dto.StateOutput, buffer)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case v, ok := <-views:
				if !ok {
					return
				}
				select {
				case out <- mapView(v):
				default:
				}
			}
		}
	}()
	return out, cancel
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.HistoryOutput, error) {
	records, err := i.svc.History(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryOutput, 0, len(records))
	for _, r := range records {
		out = append(out, dto.HistoryOutput{
			Phase:          string(r.Phase),
			PlannedSeconds: r.PlannedSeconds,
			StartedAt:      r.StartedAt,
			CompletedAt:    r.CompletedAt,
			PomodoroCount:  r.PomodoroCount,
		})
	}
	return out, nil
}

func (i *Interactor) RunDaemon(ctx context.Context) error {
	return i.svc.RunDaemon(ctx)
}

func (i *Interactor) StartDaemon(ctx context.Context) error {
	return i.svc.StartDaemon(ctx)
}

func (i *Interactor) StopDaemon(ctx context.Context) error {
	return i.svc.StopDaemon(ctx)
}

func (i *Interactor) DaemonStatus(ctx context.Context) (dto.DaemonStatusOutput, error) {
	status, err := i.svc.DaemonStatus(ctx)
	if err != nil {
		return dto.DaemonStatusOutput{}, err
	}
	return dto.DaemonStatusOutput{
		Running:     status.Running,
		PID:         status.PID,
		SocketPath:  status.SocketPath,
		Initialized: status.Status.Initialized,
		StartedAt:   status.Status.StartedAt,
		HTTPAddr:    status.Status.HTTPAddr,
		Subscribers: status.Status.Subscribers,
		State:       mapView(status.Status.State),
		HasState:    status.HasStatus,
	}, nil
}

func (i *Interactor) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return i.svc.DaemonLogs(ctx, tail)
}

func (i *Interactor) dispatch(ctx context.Context, cmd domain.Command) (dto.CommandOutput, error) {
	resp, err := i.svc.Dispatch(ctx, cmd)
	if err != nil {
		return dto.CommandOutput{}, err
	}
	return dto.CommandOutput{Success: resp.Success, State: mapView(resp.State)}, nil
}

func mapView(v domain.View) dto.StateOutput {
	phase := domain.PhaseFocus
	if v.OnBreak {
		phase = domain.PhaseBreak
	}
	status := domain.StatusIdle
	switch {
	case v.Running:
		status = domain.StatusRunning
	case v.Paused:
		status = domain.StatusPaused
	}
	return dto.StateOutput{
		TimeLeft:  v.TimeLeft,
		Running:   v.Running,
		Paused:    v.Paused,
		OnBreak:   v.OnBreak,
		Completed: v.Completed,
		Phase:     string(phase),
		Status:    string(status),
		Badge:     domain.BadgeText(v.TimeLeft),
		Color:     domain.BadgeColor(v.OnBreak),
	}
}
