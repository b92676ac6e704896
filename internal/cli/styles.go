// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// Shared styles for line-mode output. lipgloss drops colour when the output
// is not a terminal.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	UserStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	AIStyle = lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)
)

// noticeStyle returns the style and status tag for a notice kind.
func noticeStyle(kind notify.Kind) (lipgloss.Style, string) {
	switch kind {
	case notify.KindSuccess:
		return SuccessStyle, styles.StatusIndicators.Success
	case notify.KindWarning:
		return WarningStyle, styles.StatusIndicators.Warning
	case notify.KindError:
		return ErrorStyle, styles.StatusIndicators.Error
	default:
		return InfoStyle, styles.StatusIndicators.Info
	}
}
