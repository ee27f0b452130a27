package domain

import "fmt"

const (
	FocusColor = "#FE4F2D"
	BreakColor = "#DAA520"
)

// BadgeText renders M:SS, minutes unpadded.
func BadgeText(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ClockText renders MM:SS for the block page title.
func ClockText(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func BadgeColor(onBreak bool) string {
	if onBreak {
		return BreakColor
	}
	return FocusColor
}
