// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// Welcome overlay text.
const (
	WelcomeTitle    = "Welcome!"
	WelcomeSubtitle = "Welcome to Gemini Chatroom"
	WelcomeBody     = "We're excited to have you here. Let's get started on this amazing journey!"
	WelcomeButton   = "Get Started"
)

// RenderWelcome renders the first-run overlay centered in width x height.
// Any key dismisses it.
func RenderWelcome(theme *styles.Theme, width, height int) string {
	boxWidth := 52
	if width > 0 && width-8 < boxWidth {
		boxWidth = width - 8
	}
	if boxWidth < 24 {
		boxWidth = 24
	}

	center := lipgloss.NewStyle().Width(boxWidth).Align(lipgloss.Center)
	content := lipgloss.JoinVertical(lipgloss.Center,
		center.Foreground(styles.Purple).Bold(true).Render(WelcomeTitle),
		"",
		center.Foreground(styles.TextPrimary).Render(WelcomeSubtitle),
		center.Foreground(styles.TextSecondary).Render(WelcomeBody),
		"",
		theme.ButtonActive.Render(WelcomeButton),
	)
	box := theme.WelcomeBox.Render(content)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
