package config

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
)

// Provider is the read-only view of configuration the dispatch core uses.
type Provider interface {
	// Plugins returns the configured plugins in load order.
	Plugins() []PluginEntry
	// ChannelConfig returns the value of key for channel, or a *LookupError.
	ChannelConfig(channel, key string) (string, error)
}

// FileProvider serves a loaded Config. The channel table can be replaced by
// Reload; readers see either the old or the new table, never a mix.
type FileProvider struct {
	path     string
	plugins  []PluginEntry
	channels atomic.Pointer[map[string]ChannelConfig]
}

// NewProvider wraps cfg. The plugin list is fixed at construction.
func NewProvider(cfg *Config) *FileProvider {
	p := &FileProvider{
		path:    cfg.Path,
		plugins: slices.Clone(cfg.Plugins),
	}
	p.swapChannels(cfg.Channels)
	return p
}

func (p *FileProvider) Plugins() []PluginEntry {
	return slices.Clone(p.plugins)
}

func (p *FileProvider) ChannelConfig(channel, key string) (string, error) {
	table := *p.channels.Load()
	ch, ok := table[channel]
	if !ok {
		return "", &LookupError{Channel: channel, Key: key}
	}
	v, ok := ch[key]
	if !ok || v == "" {
		return "", &LookupError{Channel: channel, Key: key}
	}
	return v, nil
}

// Channels returns the configured channel names, sorted.
func (p *FileProvider) Channels() []string {
	return slices.Sorted(maps.Keys(*p.channels.Load()))
}

// Reload re-reads the config file and swaps in its channel table. Plugin
// changes require a restart and are ignored here.
func (p *FileProvider) Reload() error {
	if p.path == "" {
		return fmt.Errorf("provider has no backing file")
	}
	cfg, err := Load(p.path)
	if err != nil {
		return err
	}
	p.swapChannels(cfg.Channels)
	return nil
}

func (p *FileProvider) swapChannels(channels map[string]ChannelConfig) {
	table := make(map[string]ChannelConfig, len(channels))
	for name, ch := range channels {
		table[name] = maps.Clone(ch)
	}
	p.channels.Store(&table)
}
