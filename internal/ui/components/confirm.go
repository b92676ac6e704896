// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// ConfirmResult is the outcome of a key press on a ConfirmDialog.
type ConfirmResult int

const (
	ConfirmPending ConfirmResult = iota
	ConfirmAccepted
	ConfirmCanceled
)

// ConfirmDialog is a modal yes/no prompt. Cancel is focused initially.
type ConfirmDialog struct {
	Title   string
	Message string
	Confirm string

	// Subject identifies what the dialog acts on, e.g. a chatroom ID.
	Subject string

	confirmFocused bool
}

// NewDeleteDialog builds the chatroom deletion prompt.
func NewDeleteDialog(id, title string) ConfirmDialog {
	if title == "" {
		title = "this chatroom"
	} else {
		title = fmt.Sprintf("%q", title)
	}
	return ConfirmDialog{
		Title:   "Confirm Deletion",
		Message: fmt.Sprintf("Are you sure you want to delete %s? This action cannot be undone.", title),
		Confirm: "Delete",
		Subject: id,
	}
}

// HandleKey applies one key press.
func (d *ConfirmDialog) HandleKey(msg tea.KeyMsg) ConfirmResult {
	switch msg.String() {
	case "left", "right", "tab", "shift+tab", "h", "l":
		d.confirmFocused = !d.confirmFocused
	case "y":
		return ConfirmAccepted
	case "n", "esc":
		return ConfirmCanceled
	case "enter":
		if d.confirmFocused {
			return ConfirmAccepted
		}
		return ConfirmCanceled
	}
	return ConfirmPending
}

// ConfirmFocused reports whether the confirm button has focus.
func (d ConfirmDialog) ConfirmFocused() bool {
	return d.confirmFocused
}

// View renders the dialog centered in width x height.
func (d ConfirmDialog) View(theme *styles.Theme, width, height int) string {
	cancel, confirm := theme.ButtonActive, theme.Button
	if d.confirmFocused {
		cancel, confirm = theme.Button, theme.ButtonActive.Background(styles.Rose)
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		theme.DialogTitle.Render(styles.StatusIndicators.Warning+" "+d.Title),
		"",
		lipgloss.NewStyle().Width(44).Align(lipgloss.Center).Render(d.Message),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			cancel.Render("Cancel"), "  ", confirm.Render(d.Confirm)),
	)
	box := theme.Dialog.Render(body)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
