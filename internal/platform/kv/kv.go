// Package kv is the profile key-value store. Keys are written independently;
// there is no transaction spanning two keys.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
)

type Store interface {
	// Get returns only the keys that are present.
	Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	// Set writes a partial record.
	Set(ctx context.Context, values map[string]json.RawMessage) error
	Close() error
}

// GetDefaults reads the keys of defaults and fills in the default for every missing key.
func GetDefaults(ctx context.Context, store Store, defaults map[string]any) (map[string]json.RawMessage, error) {
	keys := make([]string, 0, len(defaults))
	for key := range defaults {
		keys = append(keys, key)
	}
	values, err := store.Get(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(defaults))
	for key, def := range defaults {
		if raw, ok := values[key]; ok {
			out[key] = raw
			continue
		}
		raw, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("marshal default %s: %w", key, err)
		}
		out[key] = raw
	}
	return out, nil
}

// Put marshals each value and writes them as one partial record.
func Put(ctx context.Context, store Store, values map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		encoded[key] = raw
	}
	return store.Set(ctx, encoded)
}
