package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/veida/store"
)

func TestMigrateStampsSchemaVersion(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	defer ts.Close()

	current, err := ts.GetCurrentSchemaVersion()
	require.NoError(t, err)

	setting, err := ts.GetSystemSetting(ctx, store.SystemSettingSchemaVersionName)
	require.NoError(t, err)
	require.NotNil(t, setting)
	require.Equal(t, current, setting.Value)

	// Migrating an up to date database changes nothing.
	require.NoError(t, ts.Migrate(ctx))
	setting, err = ts.GetSystemSetting(ctx, store.SystemSettingSchemaVersionName)
	require.NoError(t, err)
	require.Equal(t, current, setting.Value)
}

func TestMigrateRefusesDowngrade(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	defer ts.Close()

	_, err := ts.UpsertSystemSetting(ctx, &store.SystemSetting{
		Name:  store.SystemSettingSchemaVersionName,
		Value: "9.9.9",
	})
	require.NoError(t, err)
	require.Error(t, ts.Migrate(ctx))
}
