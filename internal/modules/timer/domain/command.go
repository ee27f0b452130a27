package domain

import (
	"fmt"

	settingsdto "pomoguard/internal/modules/settings/dto"
	apperrors "pomoguard/internal/platform/errors"
)

type Action string

const (
	ActionGetState   Action = "getState"
	ActionStart      Action = "start"
	ActionPause      Action = "pause"
	ActionResume     Action = "resume"
	ActionReset      Action = "reset"
	ActionResetCount Action = "resetCount"
)

var actions = []Action{ActionGetState, ActionStart, ActionPause, ActionResume, ActionReset, ActionResetCount}

func Actions() []Action {
	return append([]Action{}, actions...)
}

func ParseAction(raw string) (Action, error) {
	for _, a := range actions {
		if string(a) == raw {
			return a, nil
		}
	}
	if raw == "" {
		return "", fmt.Errorf("%w: action is required", apperrors.ErrUnknownAction)
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownAction, raw)
}

// Command is one request on the command interface. Zero minutes means the
// caller supplied no explicit duration.
type Command struct {
	Action       Action `json:"action"`
	FocusMinutes int    `json:"focusTime,omitempty"`
	BreakMinutes int    `json:"breakTime,omitempty"`
}

// Clamped bounds any explicit duration into the settings range.
func (c Command) Clamped() Command {
	if c.FocusMinutes != 0 {
		c.FocusMinutes = settingsdto.ClampFocus(c.FocusMinutes)
	}
	if c.BreakMinutes != 0 {
		c.BreakMinutes = settingsdto.ClampBreak(c.BreakMinutes)
	}
	return c
}

// Minutes reads a loosely typed duration from a request: a JSON number, a
// numeric string or a fraction, truncated. Anything else is 0, meaning not
// supplied. Huge values saturate so Clamped can bound them.
func Minutes(v any) int {
	f, ok := number(v)
	switch {
	case !ok:
		return 0
	case f > maxStoredSeconds:
		return maxStoredSeconds
	case f < -maxStoredSeconds:
		return -maxStoredSeconds
	}
	return int(f)
}

// Response carries the state for getState and Success for everything else.
type Response struct {
	Success bool `json:"success"`
	State   View `json:"state"`
}
