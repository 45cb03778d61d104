package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeHelpers(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	got, err := GetTime(ctx, r, KeyLastSyncAt)
	require.NoError(t, err)
	assert.Nil(t, got, "missing cursor")

	ts := time.Date(2024, 6, 1, 12, 30, 0, 123456789, time.UTC)
	require.NoError(t, SetTime(ctx, r, KeyLastSyncAt, ts))

	got, err = GetTime(ctx, r, KeyLastSyncAt)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(ts.Truncate(time.Microsecond)))

	require.NoError(t, r.Set(ctx, KeyLastSyncAt, []byte("garbage")))
	_, err = GetTime(ctx, r, KeyLastSyncAt)
	require.ErrorContains(t, err, "metadata[last_sync_at]")
}

func TestBoolHelpers(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	key := SeededKey("guest")
	assert.Equal(t, "seeded:guest", key)

	on, err := GetBool(ctx, r, key)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, SetBool(ctx, r, key, true))
	on, err = GetBool(ctx, r, key)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, SetBool(ctx, r, key, false))
	on, err = GetBool(ctx, r, key)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestJSONHelpers(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	type settings struct {
		Editor string `json:"editor"`
	}

	var s settings
	ok, err := GetJSON(ctx, r, SettingsKey("u1"), &s)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetJSON(ctx, r, SettingsKey("u1"), settings{Editor: "vim"}))
	ok, err = GetJSON(ctx, r, SettingsKey("u1"), &s)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "vim", s.Editor)

	require.Error(t, SetJSON(ctx, r, "bad", make(chan int)))
}
