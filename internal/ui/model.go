// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Shows output connection state, negotiated format and counters
package ui

import (
	"fmt"

	"github.com/Sendspin/sendspin-pulse/internal/playback"
	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Output
	output    string
	server    string
	connected bool
	format    audio.Format

	// Track
	title string

	// Counters
	attempts    int
	failures    int
	bytesPlayed int64
	lastErr     string

	// Volume, only when the output supports it
	volume     int
	volumeCtrl *VolumeControl

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int
}

// Info holds the fixed details shown in the header
type Info struct {
	Output string
	Server string
	Title  string
}

// StatusMsg carries a playback status snapshot into the TUI
type StatusMsg struct {
	Status playback.Status
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the output and its connection state
func (m Model) renderHeader() string {
	connIcon := "✗"
	connStatus := "Disconnected"
	if m.connected {
		connIcon = "✓"
		connStatus = "Connected"
	} else if m.lastErr != "" {
		connIcon = "⚠"
		connStatus = "Retrying"
	}

	server := m.server
	if server == "" {
		server = "(default)"
	}

	return fmt.Sprintf(`┌─ Pulse Play ─────────────────────────────────────────┐
│ Output: %-45s │
│ Server: %-45s │
│ Status: %s %-43s │
├──────────────────────────────────────────────────────┤
`, truncate(m.output, 45), truncate(server, 45), connIcon, connStatus)
}

// renderStreamInfo renders the track and negotiated format
func (m Model) renderStreamInfo() string {
	s := fmt.Sprintf("│ Track:  %-45s │\n", truncate(m.title, 45))

	if !m.connected {
		return s + "│ Format: -                                            │\n"
	}

	s += fmt.Sprintf("│ Format: %dHz %s %d-bit%-24s │\n",
		m.format.SampleRate, channelName(m.format.Channels), m.format.BitDepth, "")
	return s
}

// renderControls renders the volume bar when volume control is available
func (m Model) renderControls() string {
	if m.volumeCtrl == nil {
		return ""
	}

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%-27s │\n",
		renderBar(m.volume, 100, 10), m.volume, "")
}

// renderStats renders playback counters
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Played: %-12s Failures: %-5d Attempts: %-6d │
│                                                      │
`, formatBytes(m.bytesPlayed), m.failures, m.attempts)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  d:Debug  q:Quit                          │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders the last error
func (m Model) renderDebug() string {
	lastErr := m.lastErr
	if lastErr == "" {
		lastErr = "none"
	}
	return fmt.Sprintf("│ DEBUG:                                               │\n"+
		"│   Last error: %-38s │\n", truncate(lastErr, 38))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		m.setVolume(m.volume + 5)
	case "down":
		m.setVolume(m.volume - 5)
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// setVolume clamps and forwards a volume change
func (m *Model) setVolume(volume int) {
	if m.volumeCtrl == nil {
		return
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	if volume == m.volume {
		return
	}
	m.volume = volume

	select {
	case m.volumeCtrl.Changes <- volume:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	st := msg.Status
	if st.Output != "" {
		m.output = st.Output
	}
	m.connected = st.Connected
	if st.Connected {
		m.format = st.Format
	}
	m.attempts = st.Attempts
	m.failures = st.Failures
	m.bytesPlayed = st.BytesPlayed
	if st.Err != nil {
		m.lastErr = st.Err.Error()
	} else if st.Connected {
		m.lastErr = ""
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	}
	return fmt.Sprintf("%dch", channels)
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
