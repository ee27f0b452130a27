package in

import (
	"context"
	"io"

	"pomoguard/internal/modules/settings/dto"
)

type Usecase interface {
	Get(ctx context.Context) (dto.SettingsOutput, error)
	SetDurations(ctx context.Context, input dto.DurationsInput) (dto.SettingsOutput, error)
	AddSites(ctx context.Context, raw []string) (dto.SitesOutput, error)
	RemoveSite(ctx context.Context, raw string) (dto.SitesOutput, error)
	ReplaceSites(ctx context.Context, raw []string) (dto.SitesOutput, error)
	Install(ctx context.Context, force bool) (dto.InstallOutput, error)
	Export(ctx context.Context, w io.Writer) error
	Import(ctx context.Context, r io.Reader) (dto.SettingsOutput, error)
}
