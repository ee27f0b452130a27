package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"pomoguard/internal/modules/timer/domain"
)

// StateOutput keeps the wire names of the stored timer record.
type StateOutput struct {
	TimeLeft  int    `json:"timeLeft"`
	Running   bool   `json:"isRunning"`
	Paused    bool   `json:"isPaused"`
	OnBreak   bool   `json:"isBreak"`
	Completed int    `json:"pomodoroCount"`
	Phase     string `json:"phase"`
	Status    string `json:"status"`
	Badge     string `json:"badge"`
	Color     string `json:"color"`
}

type StartInput struct {
	FocusMinutes int
	BreakMinutes int
}

type CommandInput struct {
	Action       string `json:"action"`
	FocusMinutes int    `json:"focusTime,omitempty"`
	BreakMinutes int    `json:"breakTime,omitempty"`
}

// UnmarshalJSON accepts durations as numbers, numeric strings or fractions.
// Values that cannot be read as a number count as not supplied.
func (c *CommandInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action       string `json:"action"`
		FocusMinutes any    `json:"focusTime"`
		BreakMinutes any    `json:"breakTime"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*c = CommandInput{
		Action:       raw.Action,
		FocusMinutes: domain.Minutes(raw.FocusMinutes),
		BreakMinutes: domain.Minutes(raw.BreakMinutes),
	}
	return nil
}

type CommandOutput struct {
	Success bool        `json:"success"`
	State   StateOutput `json:"state"`
}

type DaemonStatusOutput struct {
	Running     bool
	PID         int
	SocketPath  string
	Initialized bool
	StartedAt   time.Time
	HTTPAddr    string
	Subscribers int
	State       StateOutput
	HasState    bool
}

type HistoryOutput struct {
	Phase          string
	PlannedSeconds int
	StartedAt      time.Time
	CompletedAt    time.Time
	PomodoroCount  int
}
