package out

import (
	"context"
	"encoding/json"
	"fmt"

	settingsdto "pomoguard/internal/modules/settings/dto"
	"pomoguard/internal/modules/timer/domain"
	timerout "pomoguard/internal/modules/timer/port/out"
	"pomoguard/internal/platform/kv"
)

const KeyTimerState = "timerState"

type KVSnapshotStore struct {
	store kv.Store
}

func NewKVSnapshotStore(store kv.Store) timerout.SnapshotStore {
	return &KVSnapshotStore{store: store}
}

func (s *KVSnapshotStore) LoadSnapshot(ctx context.Context) (domain.Snapshot, bool, error) {
	values, err := s.store.Get(ctx, []string{KeyTimerState})
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load timer state: %w", err)
	}
	raw, ok := values[KeyTimerState]
	if !ok {
		return domain.Snapshot{}, false, nil
	}
	snap, ok := domain.DecodeSnapshot(raw)
	return snap, ok, nil
}

func (s *KVSnapshotStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	if err := kv.Put(ctx, s.store, map[string]any{KeyTimerState: snap}); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

// LoadCount treats a missing or malformed counter as zero.
func (s *KVSnapshotStore) LoadCount(ctx context.Context) (int, error) {
	values, err := s.store.Get(ctx, []string{settingsdto.KeyPomodoroCount})
	if err != nil {
		return 0, fmt.Errorf("load pomodoro count: %w", err)
	}
	raw, ok := values[settingsdto.KeyPomodoroCount]
	if !ok {
		return 0, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil || f < 0 {
		return 0, nil
	}
	return int(f), nil
}

func (s *KVSnapshotStore) SaveCount(ctx context.Context, count int) error {
	if err := kv.Put(ctx, s.store, map[string]any{settingsdto.KeyPomodoroCount: count}); err != nil {
		return fmt.Errorf("save pomodoro count: %w", err)
	}
	return nil
}
