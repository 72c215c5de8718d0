package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal valid config",
			yaml: `
channels:
  general:
    outgoing: https://chat.example.com/hooks/abc
    username: bot
plugins:
  - name: echo
  - name: uptime
    config:
      prefix: "!up"
`,
			checkFn: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "matterhub", cfg.Service.Name)
				assert.Equal(t, "info", cfg.Service.LogLevel)
				assert.Equal(t, "127.0.0.1:8065", cfg.Server.Listen)
				assert.Equal(t, 30*time.Second, cfg.Outgoing.Timeout)
				assert.Equal(t, "https://chat.example.com/hooks/abc", cfg.Channels["general"]["outgoing"])

				require.Len(t, cfg.Plugins, 2)
				assert.Equal(t, "echo", cfg.Plugins[0].Name)
				assert.NotNil(t, cfg.Plugins[0].Config, "empty plugin config should default to {}")
				assert.Equal(t, "uptime", cfg.Plugins[1].Name)
				assert.Equal(t, "!up", cfg.Plugins[1].Config["prefix"])
			},
		},
		{
			name: "relative state path is resolved next to the config file",
			yaml: `
state:
  path: data/state.db
`,
			checkFn: func(t *testing.T, cfg *Config) {
				assert.True(t, filepath.IsAbs(cfg.State.Path))
				assert.Equal(t, filepath.Join(filepath.Dir(cfg.Path), "data", "state.db"), cfg.State.Path)
			},
		},
		{
			name: "env var interpolation",
			yaml: `
channels:
  general:
    outgoing: ${HOOK_URL}
    username: bot
plugins:
  - name: echo
    config:
      api_key: ${API_KEY}
`,
			env: map[string]string{
				"HOOK_URL": "https://hooks.example.com/x",
				"API_KEY":  "secret123",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "https://hooks.example.com/x", cfg.Channels["general"]["outgoing"])
				assert.Equal(t, "secret123", cfg.Plugins[0].Config["api_key"])
			},
		},
		{
			name: "unset env var in channel",
			yaml: `
channels:
  general:
    outgoing: ${MATTERHUB_TEST_UNSET_HOOK}
`,
			wantErr: "MATTERHUB_TEST_UNSET_HOOK",
		},
		{
			name: "unset env var in plugin config",
			yaml: `
plugins:
  - name: echo
    config:
      nested:
        token: ${MATTERHUB_TEST_UNSET_TOKEN}
`,
			wantErr: "MATTERHUB_TEST_UNSET_TOKEN",
		},
		{
			name:    "invalid log level",
			yaml:    "service:\n  log_level: loud\n",
			wantErr: "log_level",
		},
		{
			name:    "plugin without name",
			yaml:    "plugins:\n  - config: {}\n",
			wantErr: "plugins[0]: name is required",
		},
		{
			name:    "invalid body size",
			yaml:    "server:\n  max_body_size: lots\n",
			wantErr: "max_body_size",
		},
		{
			name:    "malformed yaml",
			yaml:    "plugins: [",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, t.TempDir(), tt.yaml)

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.checkFn(t, cfg)
		})
	}
}

func TestLoadAcceptsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "service:\n  name: from-dir\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dir", cfg.Service.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "config file not found"))
}

func TestParseBodySize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1048576", 1048576, false},
		{"1MiB", 1 << 20, false},
		{"1MB", 1000 * 1000, false},
		{"64KiB", 64 << 10, false},
		{"0", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBodySize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
