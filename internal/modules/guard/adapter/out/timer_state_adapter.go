package out

import (
	"context"

	"pomoguard/internal/modules/guard/domain"
	guardout "pomoguard/internal/modules/guard/port/out"
	timerin "pomoguard/internal/modules/timer/port/in"
)

type TimerStateAdapter struct {
	timer timerin.Query
}

func NewTimerStateAdapter(timer timerin.Query) guardout.StateReader {
	return &TimerStateAdapter{timer: timer}
}

func (a *TimerStateAdapter) Session(ctx context.Context) (domain.SessionView, error) {
	state, err := a.timer.GetState(ctx)
	if err != nil {
		return domain.SessionView{}, err
	}
	return domain.SessionView{
		TimeLeft: state.TimeLeft,
		Running:  state.Running,
		Paused:   state.Paused,
		OnBreak:  state.OnBreak,
	}, nil
}
