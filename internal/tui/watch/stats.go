package watch

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/charmbracelet/bubbles/table"

	"github.com/adfinis-sygroup/matterhub/internal/events"
)

// PluginStatus is the last known load state of a plugin.
type PluginStatus struct {
	Name   string
	Status string // initializing, loaded, failed
	Error  string
}

// ChannelStats counts activity on one channel since the watch started.
type ChannelStats struct {
	Name       string
	Dispatches int
	Failures   int // failed handler invocations
	Sent       int
	LastStatus int // HTTP status of the last outgoing post
}

type eventData struct {
	Plugin  string `json:"plugin"`
	Channel string `json:"channel"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// apply folds one hub event into the plugin and channel tables.
func apply(plugins map[string]*PluginStatus, channels map[string]*ChannelStats, e events.Event) {
	var d eventData
	_ = json.Unmarshal(e.Data, &d)

	switch e.Type {
	case events.PluginInitializing, events.PluginLoaded, events.PluginFailed:
		if d.Plugin == "" {
			return
		}
		p, ok := plugins[d.Plugin]
		if !ok {
			p = &PluginStatus{Name: d.Plugin}
			plugins[d.Plugin] = p
		}
		switch e.Type {
		case events.PluginInitializing:
			p.Status, p.Error = "initializing", ""
		case events.PluginLoaded:
			p.Status, p.Error = "loaded", ""
		case events.PluginFailed:
			p.Status, p.Error = "failed", d.Error
		}
	case events.DispatchStarted, events.HandlerFailed, events.MessageSent:
		if d.Channel == "" {
			return
		}
		c, ok := channels[d.Channel]
		if !ok {
			c = &ChannelStats{Name: d.Channel}
			channels[d.Channel] = c
		}
		switch e.Type {
		case events.DispatchStarted:
			c.Dispatches++
		case events.HandlerFailed:
			c.Failures++
		case events.MessageSent:
			c.Sent++
			c.LastStatus = d.Status
		}
	}
}

func channelRows(channels map[string]*ChannelStats) []table.Row {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		c := channels[name]
		last := "-"
		if c.LastStatus != 0 {
			last = strconv.Itoa(c.LastStatus)
		}
		rows = append(rows, table.Row{
			c.Name,
			strconv.Itoa(c.Dispatches),
			strconv.Itoa(c.Failures),
			strconv.Itoa(c.Sent),
			last,
		})
	}
	return rows
}

func sortedPlugins(plugins map[string]*PluginStatus) []*PluginStatus {
	out := make([]*PluginStatus, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
