// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the waveplay front end
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Command is a transport request raised by a key press.
type Command int

const (
	CmdPlayPause Command = iota
	CmdStop
	CmdVolumeUp
	CmdVolumeDown
	CmdMuteToggle
	CmdFaster
	CmdSlower
	CmdLoopToggle
)

// Controls holds channels for TUI-to-player communication
type Controls struct {
	Commands chan Command
	Quit     chan struct{}
}

// NewControls creates a new control channel pair
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan Command, 10),
		Quit:     make(chan struct{}, 1),
	}
}

// Run starts the TUI
func Run(ctrl *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
