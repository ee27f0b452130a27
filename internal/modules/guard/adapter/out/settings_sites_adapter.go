package out

import (
	"context"

	guardout "pomoguard/internal/modules/guard/port/out"
	settingsin "pomoguard/internal/modules/settings/port/in"
)

type SettingsSitesAdapter struct {
	settings settingsin.Usecase
}

func NewSettingsSitesAdapter(settings settingsin.Usecase) guardout.SiteReader {
	return &SettingsSitesAdapter{settings: settings}
}

func (a *SettingsSitesAdapter) BlockedSites(ctx context.Context) ([]string, error) {
	out, err := a.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return out.BlockedSites, nil
}
