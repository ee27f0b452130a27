package out

import (
	"context"
	"io"

	"pomoguard/internal/modules/settings/domain"
)

// Patch writes only the non-nil fields.
type Patch struct {
	FocusMinutes *int
	BreakMinutes *int
	BlockedSites *[]string
}

type SettingsStore interface {
	// Load returns defaults for missing keys; installed reports whether any key was present.
	Load(ctx context.Context) (settings domain.Settings, installed bool, err error)
	Save(ctx context.Context, patch Patch) error
	// Seed writes every settings key and a zero pomodoro count.
	Seed(ctx context.Context, settings domain.Settings) error
}

type Codec interface {
	Encode(w io.Writer, settings domain.Settings) error
	Decode(r io.Reader) (domain.Settings, error)
}
