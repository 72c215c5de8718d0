package main

import (
	"fmt"
	"net"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/tui/watch"
)

func newWatchCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of a running hub's events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseURL, err := watchURL(addr, *configPath)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(watch.New(baseURL)).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "hub address (default: server.listen from config)")
	return cmd
}

// watchURL picks the hub base URL from --addr or the config's listen address.
func watchURL(addr, configPath string) (string, error) {
	if addr == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return "", fmt.Errorf("no --addr given and config unreadable: %w", err)
		}
		addr = cfg.Server.Listen
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/"), nil
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}
