// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// TypingIndicator shows "<persona> is typing" with an ASCII spinner while a
// reply is pending.
type TypingIndicator struct {
	spinner spinner.Model
	persona string
	active  bool
}

// NewTypingIndicator creates an inactive indicator.
func NewTypingIndicator(persona string) TypingIndicator {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
		FPS:    time.Second / 6,
	}
	return TypingIndicator{spinner: s, persona: persona}
}

// Start activates the indicator and returns the first tick. Starting an
// active indicator returns nil so only one tick loop runs.
func (t *TypingIndicator) Start() tea.Cmd {
	if t.active {
		return nil
	}
	t.active = true
	return t.spinner.Tick
}

// Stop deactivates the indicator; pending ticks are ignored.
func (t *TypingIndicator) Stop() {
	t.active = false
}

// Active reports whether the indicator is shown.
func (t TypingIndicator) Active() bool {
	return t.active
}

// Update advances the spinner while active.
func (t TypingIndicator) Update(msg tea.Msg) (TypingIndicator, tea.Cmd) {
	if !t.active {
		return t, nil
	}
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the indicator, or "" when inactive.
func (t TypingIndicator) View() string {
	if !t.active {
		return ""
	}
	text := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Render(t.persona + " is typing")
	dots := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Render(t.spinner.View())
	return text + dots
}
