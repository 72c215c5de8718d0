package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/plugin"
	"github.com/adfinis-sygroup/matterhub/internal/sender"
)

func newConfigCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate and lock the configuration",
	}
	cmd.AddCommand(newConfigCheckCmd(configPath), newConfigLockCmd(configPath))
	return cmd
}

func newConfigCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate syntax, integrity and references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigCheck(cmd.OutOrStdout(), *configPath, plugin.Default())
		},
	}
}

// runConfigCheck loads the config and reports problems that would only
// surface at runtime: unknown plugins and channels the sender cannot post to.
func runConfigCheck(out io.Writer, configPath string, cat *plugin.Catalog) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var problems []string
	for _, entry := range cfg.Plugins {
		if _, ok := cat.Get(entry.Name); !ok {
			problems = append(problems, fmt.Sprintf("plugin %q is not compiled into this binary", entry.Name))
		}
	}

	names := make([]string, 0, len(cfg.Channels))
	for name := range cfg.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, key := range []string{sender.KeyOutgoing, sender.KeyUsername} {
			if cfg.Channels[name][key] == "" {
				problems = append(problems, fmt.Sprintf("channel %q: %q is not set", name, key))
			}
		}
	}

	for _, p := range problems {
		fmt.Fprintf(out, "WARN  %s\n", p)
	}
	fmt.Fprintf(out, "OK    %s: %d channel(s), %d plugin(s)\n", cfg.Path, len(cfg.Channels), len(cfg.Plugins))
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found", len(problems))
	}
	return nil
}

func newConfigLockCmd(configPath *string) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Record the config file hash in .checksums",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := config.Lock(*configPath, dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !report.Written {
				fmt.Fprintf(out, "would write %s\n  %s  %s\n", report.ChecksumPath, report.Hash, report.ConfigPath)
				return nil
			}
			fmt.Fprintf(out, "locked %s\n  %s\n", report.ConfigPath, report.Hash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute the hash without writing .checksums")
	return cmd
}
