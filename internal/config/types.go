package config

import (
	"fmt"
	"time"
)

// Config represents the complete matterhub configuration.
type Config struct {
	Service  ServiceConfig            `yaml:"service"`
	State    StateConfig              `yaml:"state"`
	Server   ServerConfig             `yaml:"server"`
	Outgoing OutgoingConfig           `yaml:"outgoing"`
	Channels map[string]ChannelConfig `yaml:"channels"`
	Plugins  []PluginEntry             `yaml:"plugins"`

	// Path is the absolute path of the file the config was loaded from.
	Path string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// StateConfig defines plugin state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig defines the inbound HTTP listener.
type ServerConfig struct {
	Listen      string `yaml:"listen"`
	MaxBodySize string `yaml:"max_body_size"` // e.g. "1MB", "512KiB", "1048576"
}

// OutgoingConfig defines webhook delivery settings.
type OutgoingConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ChannelConfig holds the settings of one channel, keyed by name.
// "outgoing" and "username" are required by the sender; any other key is
// available to plugins through the provider.
type ChannelConfig map[string]string

// PluginConfig is the opaque per-plugin configuration blob. Its shape is
// defined by the plugin that reads it.
type PluginConfig map[string]any

// PluginEntry names a plugin to load and the configuration passed to it.
type PluginEntry struct {
	Name   string       `yaml:"name"`
	Config PluginConfig `yaml:"config,omitempty"`
}

// LookupError reports a channel configuration key that is not set.
type LookupError struct {
	Channel string
	Key     string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("channel %q: config key %q not set", e.Channel, e.Key)
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "matterhub",
			LogLevel: "info",
		},
		State: StateConfig{
			Path: "./data/state.db",
		},
		Server: ServerConfig{
			Listen:      "127.0.0.1:8065",
			MaxBodySize: "1MB",
		},
		Outgoing: OutgoingConfig{
			Timeout: 30 * time.Second,
		},
		Channels: make(map[string]ChannelConfig),
	}
}
