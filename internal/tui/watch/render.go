package watch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/adfinis-sygroup/matterhub/internal/events"
)

func (m Model) renderHeader(innerWidth int) string {
	statusText := m.theme.StatusOK.Render("HEALTHY")
	if !m.health.Connected {
		statusText = m.theme.StatusFailed.Render("CONNECTING")
	} else if m.health.Status != "ok" && m.health.Status != "" {
		statusText = m.theme.StatusFailed.Render("DEGRADED")
	}

	lastEvent := "never"
	if !m.lastEvent.IsZero() {
		lastEvent = fmt.Sprintf("%s ago", time.Since(m.lastEvent).Round(time.Second))
	}

	uptime := m.health.Uptime
	if uptime == "" {
		uptime = "-"
	}

	titleLine := fmt.Sprintf(" MATTERHUB WATCH %s  %s", m.spinner.View(), m.theme.Dim.Render(m.baseURL))
	statsLine := fmt.Sprintf(" %s  up %s  Handlers: %d  Last event: %s",
		statusText, uptime, m.health.Handlers, lastEvent)

	return m.theme.Border.Width(innerWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleLine, statsLine),
	)
}

func (m Model) renderPlugins(innerWidth int) string {
	lines := []string{m.theme.Title.Render("PLUGINS")}
	if len(m.plugins) == 0 {
		lines = append(lines, m.theme.Dim.Render("  No plugin events seen yet"))
	}
	for _, p := range sortedPlugins(m.plugins) {
		var style lipgloss.Style
		switch p.Status {
		case "loaded":
			style = m.theme.StatusOK
		case "failed":
			style = m.theme.StatusFailed
		default:
			style = m.theme.StatusRunning
		}
		line := fmt.Sprintf("  %-20s %s", p.Name, style.Render(p.Status))
		if p.Error != "" {
			line += " " + m.theme.Dim.Render(truncate(p.Error, innerWidth-40))
		}
		lines = append(lines, line)
	}
	return m.theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderChannels(innerWidth int) string {
	return m.theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("CHANNELS"),
		m.channelTable.View(),
	))
}

func (m Model) renderEventStream(innerWidth int) string {
	if len(m.eventLog) == 0 {
		return m.theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("EVENT STREAM"),
			m.theme.Dim.Render("  Waiting for events..."),
		))
	}

	var lines []string
	for i, e := range m.eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, m.theme))
	}
	return m.theme.Border.Width(innerWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("EVENT STREAM"),
		lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n")),
	))
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))

	var typeStyle lipgloss.Style
	switch {
	case strings.HasSuffix(e.Type, ".completed"), strings.HasSuffix(e.Type, ".loaded"), e.Type == events.MessageSent:
		typeStyle = theme.StatusOK
	case strings.HasSuffix(e.Type, ".failed"):
		typeStyle = theme.StatusFailed
	case strings.HasSuffix(e.Type, ".started"), strings.HasSuffix(e.Type, ".initializing"):
		typeStyle = theme.StatusRunning
	default:
		typeStyle = theme.Highlight
	}

	return fmt.Sprintf("%s %s %s", ts, typeStyle.Render(fmt.Sprintf("%-20s", e.Type)), describeEvent(e))
}

func describeEvent(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string
	if id, ok := data["dispatch_id"].(string); ok {
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", id))
	}
	for _, key := range []string{"plugin", "channel"} {
		if v, ok := data[key].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	if status, ok := data["status"].(float64); ok {
		parts = append(parts, fmt.Sprintf("%d", int(status)))
	}
	if msg, ok := data["error"].(string); ok && msg != "" {
		parts = append(parts, truncate(msg, 60))
	}

	if len(parts) == 0 {
		return truncate(string(e.Data), 60)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
