package webhook

import (
	"fmt"

	"github.com/adfinis-sygroup/matterhub/internal/config"
)

// FromGlobalConfig converts config.ServerConfig to webhook.Config.
func FromGlobalConfig(sc config.ServerConfig) (Config, error) {
	cfg := Config{
		Listen:      sc.Listen,
		MaxBodySize: DefaultMaxBodySize,
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if sc.MaxBodySize != "" {
		n, err := config.ParseBodySize(sc.MaxBodySize)
		if err != nil {
			return Config{}, fmt.Errorf("server.max_body_size: %w", err)
		}
		cfg.MaxBodySize = n
	}
	return cfg, nil
}
