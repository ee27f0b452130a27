package usecase

import (
	"context"
	"io"

	"pomoguard/internal/modules/settings/domain"
	"pomoguard/internal/modules/settings/dto"
	settingsin "pomoguard/internal/modules/settings/port/in"
	"pomoguard/internal/modules/settings/service"
)

type Interactor struct {
	svc *service.SettingsService
}

func NewInteractor(svc *service.SettingsService) settingsin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Get(ctx context.Context) (dto.SettingsOutput, error) {
	current, err := i.svc.Get(ctx)
	if err != nil {
		return dto.SettingsOutput{}, err
	}
	return mapSettings(current), nil
}

func (i *Interactor) SetDurations(ctx context.Context, input dto.DurationsInput) (dto.SettingsOutput, error) {
	current, err := i.svc.SetDurations(ctx, input.FocusMinutes, input.BreakMinutes)
	if err != nil {
		return dto.SettingsOutput{}, err
	}
	return mapSettings(current), nil
}

func (i *Interactor) AddSites(ctx context.Context, raw []string) (dto.SitesOutput, error) {
	added, rejected, current, err := i.svc.AddSites(ctx, raw)
	if err != nil {
		return dto.SitesOutput{}, err
	}
	return dto.SitesOutput{Added: added, Rejected: rejected, BlockedSites: current.BlockedSites}, nil
}

func (i *Interactor) RemoveSite(ctx context.Context, raw string) (dto.SitesOutput, error) {
	current, err := i.svc.RemoveSite(ctx, raw)
	if err != nil {
		return dto.SitesOutput{}, err
	}
	return dto.SitesOutput{BlockedSites: current.BlockedSites}, nil
}

func (i *Interactor) ReplaceSites(ctx context.Context, raw []string) (dto.SitesOutput, error) {
	current, rejected, err := i.svc.ReplaceSites(ctx, raw)
	if err != nil {
		return dto.SitesOutput{}, err
	}
	return dto.SitesOutput{Added: current.BlockedSites, Rejected: rejected, BlockedSites: current.BlockedSites}, nil
}

func (i *Interactor) Install(ctx context.Context, force bool) (dto.InstallOutput, error) {
	seeded, err := i.svc.Install(ctx, force)
	if err != nil {
		return dto.InstallOutput{}, err
	}
	return dto.InstallOutput{Seeded: seeded}, nil
}

func (i *Interactor) Export(ctx context.Context, w io.Writer) error {
	return i.svc.Export(ctx, w)
}

func (i *Interactor) Import(ctx context.Context, r io.Reader) (dto.SettingsOutput, error) {
	current, err := i.svc.Import(ctx, r)
	if err != nil {
		return dto.SettingsOutput{}, err
	}
	return mapSettings(current), nil
}

func mapSettings(s domain.Settings) dto.SettingsOutput {
	return dto.SettingsOutput{
		FocusMinutes: s.FocusMinutes,
		BreakMinutes: s.BreakMinutes,
		BlockedSites: append([]string{}, s.BlockedSites...),
	}
}
