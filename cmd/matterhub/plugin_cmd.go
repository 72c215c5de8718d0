package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/plugin"
)

func newPluginCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Inspect available plugins",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plugins compiled into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPluginList(cmd.OutOrStdout(), *configPath, plugin.Default())
		},
	})
	return cmd
}

// runPluginList prints every available plugin with its position in the
// configured load order, if the config can be read.
func runPluginList(out io.Writer, configPath string, cat *plugin.Catalog) error {
	order := map[string]int{}
	if cfg, err := config.Load(configPath); err == nil {
		for i, entry := range cfg.Plugins {
			if _, seen := order[entry.Name]; !seen {
				order[entry.Name] = i + 1
			}
		}
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLOAD ORDER")
	for _, name := range cat.Names() {
		pos := "-"
		if n, ok := order[name]; ok {
			pos = fmt.Sprintf("%d", n)
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, pos)
	}
	return tw.Flush()
}
