package out

import (
	"context"

	settingsin "pomoguard/internal/modules/settings/port/in"
	timerout "pomoguard/internal/modules/timer/port/out"
)

// SettingsBridge exposes the settings module to the engine.
type SettingsBridge struct {
	settings settingsin.Usecase
}

func NewSettingsBridge(settings settingsin.Usecase) *SettingsBridge {
	return &SettingsBridge{settings: settings}
}

var (
	_ timerout.SettingsReader = (*SettingsBridge)(nil)
	_ timerout.Installer      = (*SettingsBridge)(nil)
)

func (b *SettingsBridge) Durations(ctx context.Context) (int, int, error) {
	out, err := b.settings.Get(ctx)
	if err != nil {
		return 0, 0, err
	}
	return out.FocusMinutes, out.BreakMinutes, nil
}

// Install seeds defaults only on first run.
func (b *SettingsBridge) Install(ctx context.Context) (bool, error) {
	out, err := b.settings.Install(ctx, false)
	if err != nil {
		return false, err
	}
	return out.Seeded, nil
}
