package service

import (
	"context"
	"fmt"
	"io"

	"pomoguard/internal/modules/settings/domain"
	settingsout "pomoguard/internal/modules/settings/port/out"
	apperrors "pomoguard/internal/platform/errors"
)

type SettingsService struct {
	store settingsout.SettingsStore
	codec settingsout.Codec
}

func NewSettingsService(store settingsout.SettingsStore, codec settingsout.Codec) *SettingsService {
	return &SettingsService{store: store, codec: codec}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	settings, _, err := s.store.Load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func (s *SettingsService) SetDurations(ctx context.Context, focus, brk *int) (domain.Settings, error) {
	if focus == nil && brk == nil {
		return domain.Settings{}, fmt.Errorf("%w: nothing to update", apperrors.ErrInvalidInput)
	}
	patch := settingsout.Patch{}
	if focus != nil {
		v := domain.ClampFocus(*focus)
		patch.FocusMinutes = &v
	}
	if brk != nil {
		v := domain.ClampBreak(*brk)
		patch.BreakMinutes = &v
	}
	if err := s.store.Save(ctx, patch); err != nil {
		return domain.Settings{}, err
	}
	return s.Get(ctx)
}

// AddSites appends the valid, not yet present entries of raw.
func (s *SettingsService) AddSites(ctx context.Context, raw []string) (added, rejected []string, current domain.Settings, err error) {
	current, err = s.Get(ctx)
	if err != nil {
		return nil, nil, domain.Settings{}, err
	}
	normalized, rejected := domain.NormalizeSites(raw)
	existing := make(map[string]struct{}, len(current.BlockedSites))
	for _, site := range current.BlockedSites {
		existing[site] = struct{}{}
	}
	sites := append([]string{}, current.BlockedSites...)
	for _, site := range normalized {
		if _, ok := existing[site]; ok {
			continue
		}
		sites = append(sites, site)
		added = append(added, site)
	}
	if len(added) == 0 {
		return nil, rejected, current, nil
	}
	if err := s.store.Save(ctx, settingsout.Patch{BlockedSites: &sites}); err != nil {
		return nil, nil, domain.Settings{}, err
	}
	current.BlockedSites = sites
	return added, rejected, current, nil
}

func (s *SettingsService) RemoveSite(ctx context.Context, raw string) (domain.Settings, error) {
	site, err := domain.NormalizeSite(raw)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("%w: %q", err, raw)
	}
	current, err := s.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	sites := make([]string, 0, len(current.BlockedSites))
	found := false
	for _, existing := range current.BlockedSites {
		if existing == site {
			found = true
			continue
		}
		sites = append(sites, existing)
	}
	if !found {
		return domain.Settings{}, fmt.Errorf("%w: site %s", apperrors.ErrNotFound, site)
	}
	if err := s.store.Save(ctx, settingsout.Patch{BlockedSites: &sites}); err != nil {
		return domain.Settings{}, err
	}
	current.BlockedSites = sites
	return current, nil
}

func (s *SettingsService) ReplaceSites(ctx context.Context, raw []string) (domain.Settings, []string, error) {
	sites, rejected := domain.NormalizeSites(raw)
	if err := s.store.Save(ctx, settingsout.Patch{BlockedSites: &sites}); err != nil {
		return domain.Settings{}, nil, err
	}
	current, err := s.Get(ctx)
	if err != nil {
		return domain.Settings{}, nil, err
	}
	return current, rejected, nil
}

// Install seeds defaults and a zero pomodoro count. Without force it leaves an
// existing profile untouched.
func (s *SettingsService) Install(ctx context.Context, force bool) (bool, error) {
	if !force {
		_, installed, err := s.store.Load(ctx)
		if err != nil {
			return false, err
		}
		if installed {
			return false, nil
		}
	}
	if err := s.store.Seed(ctx, domain.Defaults()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SettingsService) Export(ctx context.Context, w io.Writer) error {
	current, err := s.Get(ctx)
	if err != nil {
		return err
	}
	return s.codec.Encode(w, current)
}

func (s *SettingsService) Import(ctx context.Context, r io.Reader) (domain.Settings, error) {
	decoded, err := s.codec.Decode(r)
	if err != nil {
		return domain.Settings{}, err
	}
	clean := decoded.Sanitize()
	if err := s.store.Save(ctx, settingsout.Patch{
		FocusMinutes: &clean.FocusMinutes,
		BreakMinutes: &clean.BreakMinutes,
		BlockedSites: &clean.BlockedSites,
	}); err != nil {
		return domain.Settings{}, err
	}
	return clean, nil
}
