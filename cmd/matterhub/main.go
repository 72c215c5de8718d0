package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/adfinis-sygroup/matterhub/plugins/echo"
	_ "github.com/adfinis-sygroup/matterhub/plugins/uptime"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

const defaultConfigPath = "config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "matterhub",
		Short: "Chat webhook hub with pluggable message handlers",
		Long: `matterhub receives outgoing webhooks from a chat server, runs every
configured plugin's message handlers on them, and posts replies back through
the channel's incoming webhook.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("MATTERHUB_CONFIG", defaultConfigPath),
		"path to config file or directory containing config.yaml")

	root.AddCommand(
		newStartCmd(&configPath),
		newConfigCmd(&configPath),
		newPluginCmd(&configPath),
		newWatchCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "matterhub version %s\n", version)
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
