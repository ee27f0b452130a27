package out

import (
	"context"
	"encoding/json"
	"fmt"

	"pomoguard/internal/modules/settings/domain"
	settingsout "pomoguard/internal/modules/settings/port/out"
	"pomoguard/internal/platform/kv"
)

type KVSettingsStore struct {
	store kv.Store
}

func NewKVSettingsStore(store kv.Store) settingsout.SettingsStore {
	return &KVSettingsStore{store: store}
}

func (s *KVSettingsStore) Load(ctx context.Context) (domain.Settings, bool, error) {
	values, err := s.store.Get(ctx, []string{domain.KeyFocusTime, domain.KeyBreakTime, domain.KeyBlockedSites})
	if err != nil {
		return domain.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}
	out := domain.Defaults()
	if raw, ok := values[domain.KeyFocusTime]; ok {
		if v, ok := decodeMinutes(raw); ok {
			out.FocusMinutes = domain.ClampFocus(v)
		}
	}
	if raw, ok := values[domain.KeyBreakTime]; ok {
		if v, ok := decodeMinutes(raw); ok {
			out.BreakMinutes = domain.ClampBreak(v)
		}
	}
	if raw, ok := values[domain.KeyBlockedSites]; ok {
		var sites []string
		if err := json.Unmarshal(raw, &sites); err == nil {
			out.BlockedSites, _ = domain.NormalizeSites(sites)
		}
	}
	return out, len(values) > 0, nil
}

func (s *KVSettingsStore) Save(ctx context.Context, patch settingsout.Patch) error {
	values := map[string]any{}
	if patch.FocusMinutes != nil {
		values[domain.KeyFocusTime] = *patch.FocusMinutes
	}
	if patch.BreakMinutes != nil {
		values[domain.KeyBreakTime] = *patch.BreakMinutes
	}
	if patch.BlockedSites != nil {
		sites := *patch.BlockedSites
		if sites == nil {
			sites = []string{}
		}
		values[domain.KeyBlockedSites] = sites
	}
	if len(values) == 0 {
		return nil
	}
	if err := kv.Put(ctx, s.store, values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *KVSettingsStore) Seed(ctx context.Context, settings domain.Settings) error {
	if err := kv.Put(ctx, s.store, map[string]any{
		domain.KeyFocusTime:     settings.FocusMinutes,
		domain.KeyBreakTime:     settings.BreakMinutes,
		domain.KeyBlockedSites:  settings.BlockedSites,
		domain.KeyPomodoroCount: 0,
	}); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// decodeMinutes accepts a JSON number or a numeric string.
func decodeMinutes(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return int(f), true
}
