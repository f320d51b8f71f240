// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the playback UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeControl carries volume changes from the TUI to the output
type VolumeControl struct {
	Changes chan int
}

// NewVolumeControl creates a new volume control handler
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan int, 10),
	}
}

// NewModel creates a new TUI model. volCtrl may be nil when the output has
// no volume control.
func NewModel(info Info, volCtrl *VolumeControl) Model {
	return Model{
		output:     info.Output,
		server:     info.Server,
		title:      info.Title,
		volume:     100,
		volumeCtrl: volCtrl,
	}
}

// Run creates the TUI program; the caller starts it
func Run(info Info, volCtrl *VolumeControl) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(info, volCtrl), tea.WithAltScreen())
	return p, nil
}
