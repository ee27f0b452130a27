package domain

import "time"

// PhaseRecord is one completed phase.
type PhaseRecord struct {
	Phase          Phase
	PlannedSeconds int
	StartedAt      time.Time
	CompletedAt    time.Time
	PomodoroCount  int
}
