package kv

import (
	"context"
	"encoding/json"
	"sync"
)

type Memory struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{values: map[string]json.RawMessage{}}
}

func (m *Memory) Get(_ context.Context, keys []string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if raw, ok := m.values[key]; ok {
			out[key] = append(json.RawMessage{}, raw...)
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, values map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, raw := range values {
		m.values[key] = append(json.RawMessage{}, raw...)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
