package dto

// Duration bounds other modules clamp against.
const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5

	MinFocusMinutes = 1
	MaxFocusMinutes = 60
	MinBreakMinutes = 1
	MaxBreakMinutes = 30
)

// KeyPomodoroCount is the store key of the completed focus counter. It sits in
// the settings record but the timer owns its value.
const KeyPomodoroCount = "pomodoroCount"

func ClampFocus(minutes int) int {
	return clamp(minutes, MinFocusMinutes, MaxFocusMinutes)
}

func ClampBreak(minutes int) int {
	return clamp(minutes, MinBreakMinutes, MaxBreakMinutes)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
