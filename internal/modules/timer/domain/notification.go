package domain

import "fmt"

type Notification struct {
	ID      string
	Title   string
	Message string
}

// PhaseNotification is the copy shown when a phase ends. enteringBreak selects
// the focus->break message; completed is the count after the transition.
func PhaseNotification(enteringBreak bool, minutes, completed int) Notification {
	if enteringBreak {
		return Notification{
			ID:      "break-notification",
			Title:   "Break Time!",
			Message: fmt.Sprintf("Great work! Take a %d-minute break.", minutes),
		}
	}
	return Notification{
		ID:      "focus-notification",
		Title:   "Focus Time!",
		Message: fmt.Sprintf("Ready for Pomodoro #%d? Let's focus for %d minutes!", completed+1, minutes),
	}
}
