package domain

import (
	"errors"
	"time"
)

var (
	ErrDaemonNotRunning  = errors.New("timer daemon is not running")
	ErrDaemonStartFailed = errors.New("timer daemon start failed")
	ErrDaemonRunning     = errors.New("timer daemon already running")
)

type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

func (p Phase) Opposite() Phase {
	if p == PhaseBreak {
		return PhaseFocus
	}
	return PhaseBreak
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// Anchor pins a running countdown to wall-clock time.
type Anchor struct {
	StartedAt      time.Time
	PlannedSeconds int
}

// Remaining is planned minus whole elapsed seconds, floored at zero. A start
// time in the future counts as no time elapsed.
func (a Anchor) Remaining(now time.Time) int {
	elapsedMS := now.Sub(a.StartedAt).Milliseconds()
	if elapsedMS < 0 {
		elapsedMS = 0
	}
	left := a.PlannedSeconds - int(elapsedMS/1000)
	if left < 0 {
		return 0
	}
	return left
}

// SessionState is the singleton timer state. Running and Paused are never both
// set, and Anchor is non-nil exactly while Running.
type SessionState struct {
	TimeLeft  int
	Running   bool
	Paused    bool
	OnBreak   bool
	Completed int
	Anchor    *Anchor
}

func IdleState(focusSeconds int) SessionState {
	return SessionState{TimeLeft: focusSeconds}
}

func (s SessionState) Phase() Phase {
	if s.OnBreak {
		return PhaseBreak
	}
	return PhaseFocus
}

func (s SessionState) Status() Status {
	switch {
	case s.Running:
		return StatusRunning
	case s.Paused:
		return StatusPaused
	default:
		return StatusIdle
	}
}

// Recompute refreshes TimeLeft from the anchor. Stopped states are returned as is.
func (s SessionState) Recompute(now time.Time) SessionState {
	if !s.Running || s.Anchor == nil {
		return s
	}
	s.TimeLeft = s.Anchor.Remaining(now)
	return s
}

// StartAt enters Running with a fresh anchor over the current TimeLeft.
func (s SessionState) StartAt(now time.Time) SessionState {
	s.Running = true
	s.Paused = false
	s.Anchor = &Anchor{StartedAt: now, PlannedSeconds: s.TimeLeft}
	return s
}

// PauseAt freezes the recomputed residual and drops the anchor.
func (s SessionState) PauseAt(now time.Time) SessionState {
	s = s.Recompute(now)
	s.Running = false
	s.Paused = true
	s.Anchor = nil
	return s
}

// ResetTo returns to Idle in the same phase with the given duration.
func (s SessionState) ResetTo(seconds int) SessionState {
	s.Running = false
	s.Paused = false
	s.Anchor = nil
	s.TimeLeft = seconds
	return s
}

// CompletePhase flips the phase, counting a completed focus phase, and loads
// nextSeconds. The result is stopped; callers start it.
func (s SessionState) CompletePhase(nextSeconds int) SessionState {
	if !s.OnBreak {
		s.Completed++
	}
	s.OnBreak = !s.OnBreak
	return s.ResetTo(nextSeconds)
}

// View is the externally visible state, shared by getState and stateUpdate.
type View struct {
	TimeLeft  int  `json:"timeLeft"`
	Running   bool `json:"isRunning"`
	Paused    bool `json:"isPaused"`
	OnBreak   bool `json:"isBreak"`
	Completed int  `json:"pomodoroCount"`
}

func (s SessionState) View() View {
	return View{
		TimeLeft:  s.TimeLeft,
		Running:   s.Running,
		Paused:    s.Paused,
		OnBreak:   s.OnBreak,
		Completed: s.Completed,
	}
}

// FocusActive reports whether navigation to blocked sites must be stopped.
func (v View) FocusActive() bool {
	return v.Running && !v.OnBreak && !v.Paused
}
