// ABOUTME: Bubbletea model for the waveplay TUI
// ABOUTME: Renders transport, volume, loop and live peak state
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	ctrl *Controls

	// Source
	source string

	// Transport
	state    string
	position float64
	duration float64

	// Levels
	volume  int
	muted   bool
	rate    float64
	looping bool

	// Last peak window, normalized [0,1]
	level float64

	// Pipeline stats
	buffers int64
	peaks   int64

	// Fault
	lastError string

	// Dimensions
	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(ctrl *Controls) Model {
	return Model{
		ctrl:   ctrl,
		state:  "stopped",
		volume: 100,
		rate:   1.0,
	}
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
	s += m.renderTransport()
	s += m.renderLevels()
	s += m.renderHelp()

	return s
}

// renderHeader renders source and fault status
func (m Model) renderHeader() string {
	src := m.source
	if src == "" {
		src = "(no source)"
	}

	s := fmt.Sprintf(`┌─ Waveplay ───────────────────────────────────────────┐
│ Source: %-44s │
`, truncate(src, 44))

	if m.lastError != "" {
		s += fmt.Sprintf("│ Error:  %-44s │\n", truncate(m.lastError, 44))
	}
	return s + "├──────────────────────────────────────────────────────┤\n"
}

// renderTransport renders state and position
func (m Model) renderTransport() string {
	posBar := "░░░░░░░░░░░░░░░░░░░░"
	if m.duration > 0 {
		posBar = renderBar(int(m.position*100/m.duration), 100, 20)
	}

	loop := ""
	if m.looping {
		loop = " ⟲"
	}

	return fmt.Sprintf("│ State: %-8s %6.1fs / %6.1fs%s%-14s │\n"+
		"│ [%s] rate %.2fx%-17s │\n",
		m.state, m.position, m.duration, loop, "",
		posBar, m.rate, "")
}

// renderLevels renders volume and the live peak meter
func (m Model) renderLevels() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)
	levelBar := renderBar(int(m.level*100), 100, 20)

	return fmt.Sprintf("│ Volume: [%s] %3d%%%s%-22s │\n"+
		"│ Peaks:  [%s] %d windows / %d buffers%-3s │\n",
		volumeBar, m.volume, muteIcon, "",
		levelBar, m.peaks, m.buffers, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ space:Play/Pause  s:Stop  ↑/↓:Volume  m:Mute         │
│ +/-:Rate  l:Loop  q:Quit                             │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		select {
		case m.ctrl.Quit <- struct{}{}:
		default:
		}
		return m, tea.Quit
	case " ":
		m.send(CmdPlayPause)
	case "s":
		m.send(CmdStop)
	case "up":
		m.send(CmdVolumeUp)
	case "down":
		m.send(CmdVolumeDown)
	case "m":
		m.send(CmdMuteToggle)
	case "+", "=":
		m.send(CmdFaster)
	case "-":
		m.send(CmdSlower)
	case "l":
		m.send(CmdLoopToggle)
	}

	return m, nil
}

func (m Model) send(cmd Command) {
	if m.ctrl == nil {
		return
	}
	select {
	case m.ctrl.Commands <- cmd:
	default:
	}
}

// applyStatus updates model from a status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Position != nil {
		m.position = *msg.Position
	}
	if msg.Duration != nil {
		m.duration = *msg.Duration
	}
	if msg.Volume != nil {
		m.volume = *msg.Volume
	}
	if msg.Muted != nil {
		m.muted = *msg.Muted
	}
	if msg.Rate != nil {
		m.rate = *msg.Rate
	}
	if msg.Looping != nil {
		m.looping = *msg.Looping
	}
	if msg.Level != nil {
		m.level = *msg.Level
	}
	if msg.Buffers != 0 {
		m.buffers = msg.Buffers
	}
	if msg.Peaks != 0 {
		m.peaks = msg.Peaks
	}
	if msg.Error != "" {
		m.lastError = msg.Error
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Source   string
	State    string
	Position *float64
	Duration *float64
	Volume   *int
	Muted    *bool
	Rate     *float64
	Looping  *bool
	Level    *float64
	Buffers  int64
	Peaks    int64
	Error    string
}

// Utility functions
func renderBar(value, max, width int) string {
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
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
