package out_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "pomoguard/internal/modules/settings/adapter/out"
	"pomoguard/internal/platform/kv"
)

func TestKVSettingsStoreLoadSanitizesStoredValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, map[string]json.RawMessage{
		"focusTime":    json.RawMessage(`"45"`),
		"breakTime":    json.RawMessage(`"soon"`),
		"blockedSites": json.RawMessage(`["Reddit.com","reddit.com","???"]`),
	}))

	settings, installed, err := out.NewKVSettingsStore(store).Load(ctx)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t, 45, settings.FocusMinutes)
	assert.Equal(t, 5, settings.BreakMinutes)
	assert.Equal(t, []string{"reddit.com"}, settings.BlockedSites)
}

func TestKVSettingsStoreLoadEmptyIsNotInstalled(t *testing.T) {
	t.Parallel()
	settings, installed, err := out.NewKVSettingsStore(kv.NewMemory()).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, installed)
	assert.Equal(t, 25, settings.FocusMinutes)
	assert.Len(t, settings.BlockedSites, 12)
}
