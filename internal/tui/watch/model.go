package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adfinis-sygroup/matterhub/internal/events"
)

const maxEventLog = 50

// HealthState tracks hub health from /healthz polling.
type HealthState struct {
	Status    string
	Handlers  int
	Uptime    string
	Connected bool
}

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	baseURL string

	width  int
	height int

	health    HealthState
	plugins   map[string]*PluginStatus
	channels  map[string]*ChannelStats
	eventLog  []events.Event
	lastEvent time.Time

	theme        Theme
	spinner      spinner.Model
	channelTable table.Model

	hubEvents chan events.Event
	lastError string
}

// New creates a watch model for the hub listening at baseURL.
func New(baseURL string) Model {
	theme := NewDefaultTheme()

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Channel", Width: 20},
			{Title: "Messages", Width: 9},
			{Title: "Failures", Width: 9},
			{Title: "Sent", Width: 6},
			{Title: "Last", Width: 5},
		}),
		table.WithHeight(6),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	t.SetStyles(s)

	return Model{
		baseURL:      baseURL,
		plugins:      make(map[string]*PluginStatus),
		channels:     make(map[string]*ChannelStats),
		theme:        theme,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Highlight)),
		channelTable: t,
		hubEvents:    make(chan events.Event, 100),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.baseURL, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		func() tea.Msg { return fetchHealth(m.baseURL) },
		m.spinner.Tick,
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.channelTable.SetWidth(max(m.width-8, 20))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m = m.recordEvent(events.Event(msg))
		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health.Status = msg.Status
		m.health.Handlers = msg.Handlers
		m.health.Uptime = msg.Uptime
		m.health.Connected = true
		m.lastError = ""
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.baseURL)
		})

	case sseDisconnectedMsg:
		m.health.Connected = false
		m.lastError = "event stream disconnected, reconnecting..."
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return reconnectMsg{}
		})

	case reconnectMsg:
		return m, subscribeToEvents(m.baseURL, m.hubEvents)

	case errMsg:
		m.lastError = msg.Error()
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return fetchHealth(m.baseURL)
		})
	}

	return m, nil
}

// recordEvent adds e to the log (newest first) and the summary tables.
func (m Model) recordEvent(e events.Event) Model {
	m.eventLog = append([]events.Event{e}, m.eventLog...)
	if len(m.eventLog) > maxEventLog {
		m.eventLog = m.eventLog[:maxEventLog]
	}
	apply(m.plugins, m.channels, e)
	m.channelTable.SetRows(channelRows(m.channels))
	m.lastEvent = time.Now()
	m.health.Connected = true
	m.lastError = ""
	return m
}

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting to " + m.baseURL + "..."
	}
	innerWidth := m.width - 4

	parts := []string{
		m.renderHeader(innerWidth),
		m.renderPlugins(innerWidth),
		m.renderChannels(innerWidth),
		m.renderEventStream(innerWidth),
	}
	if m.lastError != "" {
		parts = append(parts, m.theme.StatusFailed.Render(fmt.Sprintf(" ! %s", m.lastError)))
	}
	parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(" [q] Quit"))

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
