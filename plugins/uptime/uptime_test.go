package uptime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
	"github.com/adfinis-sygroup/matterhub/internal/dispatch/mocks"
	"github.com/adfinis-sygroup/matterhub/internal/log"
	"github.com/adfinis-sygroup/matterhub/internal/plugin"
	"github.com/adfinis-sygroup/matterhub/internal/state"
	"github.com/adfinis-sygroup/matterhub/internal/storage"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

func openStore(t *testing.T) *state.Store {
	t.Helper()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return state.NewStore(db)
}

func load(t *testing.T, store *state.Store, cfg plugin.Config) *dispatch.Registry {
	t.Helper()
	reg := dispatch.NewRegistry()
	l := plugin.NewLoader(nil, reg, store, nil)
	require.NoError(t, l.LoadOne(context.Background(), Name, cfg))
	l.Wait()
	return reg
}

func TestUptimeCountsStarts(t *testing.T) {
	store := openStore(t)
	load(t, store, nil)
	load(t, store, nil)

	var st pluginState
	require.NoError(t, store.For(Name).Decode(context.Background(), &st))
	assert.Equal(t, 2, st.Starts)
	assert.NotEmpty(t, st.LastStart)
}

func TestUptimeAnswersPrefixedMessages(t *testing.T) {
	reg := load(t, openStore(t), plugin.Config{"prefix": "!up"})
	require.Equal(t, 1, reg.Len())

	ctrl := gomock.NewController(t)
	snd := mocks.NewMockSender(ctrl)
	snd.EXPECT().
		Send(gomock.Any(), "ops", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, text string) error {
			assert.Contains(t, text, "up for")
			assert.Contains(t, text, "start #1")
			return nil
		})

	disp := dispatch.New(reg, snd, nil)
	disp.Receive(context.Background(), "ops", json.RawMessage(`{"text":"!up please"}`))
	disp.Receive(context.Background(), "ops", json.RawMessage(`{"text":"unrelated"}`))
}

func TestUptimeHook(t *testing.T) {
	reg := load(t, nil, plugin.Config{"path": "/status/uptime"})

	hook, ok := reg.Hook(http.MethodGet, "/status/uptime")
	require.True(t, ok)

	rec := httptest.NewRecorder()
	hook.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/uptime", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, 1, st.Starts)
	_, err := time.Parse(time.RFC3339, st.Started)
	assert.NoError(t, err)
}

func TestTrackerUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := &tracker{started: start, now: func() time.Time { return start.Add(3 * time.Hour) }}
	assert.Equal(t, "3 hours", tr.uptime())
}
