package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfinis-sygroup/matterhub/internal/storage"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestStoreGetMissingReturnsEmptyObject(t *testing.T) {
	t.Parallel()

	raw, err := openStore(t).Get(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestStoreShallowMergeReplacesTopLevelKeys(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	_, err := s.ShallowMerge(ctx, "p", json.RawMessage(`{"a":1,"b":{"x":1}}`))
	require.NoError(t, err)
	merged, err := s.ShallowMerge(ctx, "p", json.RawMessage(`{"b":{"y":2}}`))
	require.NoError(t, err)

	// "b" is replaced, not deep-merged.
	assert.JSONEq(t, `{"a":1,"b":{"y":2}}`, string(merged))
}

func TestStoreRejectsNonObjectUpdates(t *testing.T) {
	t.Parallel()

	_, err := openStore(t).ShallowMerge(context.Background(), "p", json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestStoreStateSizeLimit(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("a", DefaultMaxStateBytes+100_000)
	update := json.RawMessage(`{"blob":"` + big + `"}`)
	_, err := openStore(t).ShallowMerge(context.Background(), "p", update)
	assert.Error(t, err)
}

func TestPluginStateIsScoped(t *testing.T) {
	t.Parallel()

	s := openStore(t)
	ctx := context.Background()

	uptime := s.For("uptime")
	echo := s.For("echo")

	_, err := uptime.Merge(ctx, map[string]int{"starts": 3})
	require.NoError(t, err)

	var got struct {
		Starts int `json:"starts"`
	}
	require.NoError(t, uptime.Decode(ctx, &got))
	assert.Equal(t, 3, got.Starts)

	raw, err := echo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}
