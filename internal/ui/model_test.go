// ABOUTME: Tests for the TUI model
// ABOUTME: Status updates, key-to-command mapping and rendering basics
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestApplyStatusPartialUpdates(t *testing.T) {
	m := NewModel(nil)

	pos := 3.5
	m.applyStatus(StatusMsg{State: "playing", Position: &pos})
	if m.state != "playing" || m.position != 3.5 {
		t.Errorf("status not applied: state=%q position=%v", m.state, m.position)
	}

	// A message with only a volume must not touch the rest.
	vol := 40
	m.applyStatus(StatusMsg{Volume: &vol})
	if m.state != "playing" || m.position != 3.5 || m.volume != 40 {
		t.Errorf("partial update clobbered state: %+v", m)
	}

	muted := true
	looping := true
	rate := 1.5
	level := 0.8
	m.applyStatus(StatusMsg{Muted: &muted, Looping: &looping, Rate: &rate, Level: &level, Buffers: 3, Peaks: 30, Error: "boom"})
	if !m.muted || !m.looping || m.rate != 1.5 || m.level != 0.8 {
		t.Errorf("levels not applied: %+v", m)
	}
	if m.buffers != 3 || m.peaks != 30 || m.lastError != "boom" {
		t.Errorf("stats not applied: %+v", m)
	}
}

func TestKeysMapToCommands(t *testing.T) {
	cases := []struct {
		key  string
		want Command
	}{
		{" ", CmdPlayPause},
		{"s", CmdStop},
		{"up", CmdVolumeUp},
		{"down", CmdVolumeDown},
		{"m", CmdMuteToggle},
		{"+", CmdFaster},
		{"=", CmdFaster},
		{"-", CmdSlower},
		{"l", CmdLoopToggle},
	}

	for _, tc := range cases {
		ctrl := NewControls()
		m := NewModel(ctrl)
		m.Update(keyMsg(tc.key))

		select {
		case got := <-ctrl.Commands:
			if got != tc.want {
				t.Errorf("key %q: expected %v, got %v", tc.key, tc.want, got)
			}
		default:
			t.Errorf("key %q: no command sent", tc.key)
		}
	}
}

func TestQuitKeySignalsQuit(t *testing.T) {
	ctrl := NewControls()
	m := NewModel(ctrl)

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected tea.Quit command")
	}

	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestUnknownKeyIsIgnored(t *testing.T) {
	ctrl := NewControls()
	m := NewModel(ctrl)
	m.Update(keyMsg("x"))

	select {
	case got := <-ctrl.Commands:
		t.Errorf("unexpected command %v for unknown key", got)
	default:
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := NewModel(nil)
	if m.View() != "Loading..." {
		t.Error("expected loading placeholder before first resize")
	}
}

func TestViewRendersStatus(t *testing.T) {
	m := NewModel(nil)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)

	pos := 1.0
	dur := 10.0
	next, _ = m.Update(StatusMsg{Source: "song.wav", State: "playing", Position: &pos, Duration: &dur})
	m = next.(Model)

	out := m.View()
	for _, want := range []string{"song.wav", "playing", "space:Play/Pause"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("a-very-long-source-uri", 10); got != "a-very-..." || len(got) != 10 {
		t.Errorf("expected 10-char truncation, got %q", got)
	}
}

func TestRenderBarClamps(t *testing.T) {
	if got := renderBar(200, 100, 4); got != "████" {
		t.Errorf("expected full bar, got %q", got)
	}
	if got := renderBar(-5, 100, 4); got != "░░░░" {
		t.Errorf("expected empty bar, got %q", got)
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
