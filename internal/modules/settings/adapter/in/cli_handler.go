package in

import (
	"context"
	"io"

	"pomoguard/internal/modules/settings/dto"
	settingsin "pomoguard/internal/modules/settings/port/in"
)

type CLIHandler struct {
	usecase settingsin.Usecase
}

func NewCLIHandler(usecase settingsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (dto.SettingsOutput, error) {
	return h.usecase.Get(ctx)
}

func (h CLIHandler) SetDurations(ctx context.Context, focus, brk *int) (dto.SettingsOutput, error) {
	return h.usecase.SetDurations(ctx, dto.DurationsInput{FocusMinutes: focus, BreakMinutes: brk})
}

func (h CLIHandler) AddSites(ctx context.Context, sites []string) (dto.SitesOutput, error) {
	return h.usecase.AddSites(ctx, sites)
}

func (h CLIHandler) RemoveSite(ctx context.Context, site string) (dto.SitesOutput, error) {
	return h.usecase.RemoveSite(ctx, site)
}

func (h CLIHandler) ReplaceSites(ctx context.Context, sites []string) (dto.SitesOutput, error) {
	return h.usecase.ReplaceSites(ctx, sites)
}

func (h CLIHandler) Install(ctx context.Context, force bool) (dto.InstallOutput, error) {
	return h.usecase.Install(ctx, force)
}

func (h CLIHandler) Export(ctx context.Context, w io.Writer) error {
	return h.usecase.Export(ctx, w)
}

func (h CLIHandler) Import(ctx context.Context, r io.Reader) (dto.SettingsOutput, error) {
	return h.usecase.Import(ctx, r)
}
