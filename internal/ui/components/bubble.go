// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/chatroom"
	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// Markdown renders responder text with glamour. A nil *Markdown renders
// plain text.
type Markdown struct {
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer for a glamour standard style ("dark" or
// "light") wrapping at width.
func NewMarkdown(style string, width int) (*Markdown, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}
	return &Markdown{renderer: r}, nil
}

// Render returns text rendered as markdown, or text itself on failure.
func (m *Markdown) Render(text string) string {
	if m == nil || m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// BUBBLES
// =============================================================================

// BubbleOptions controls how a message renders.
type BubbleOptions struct {
	Width    int
	Persona  string
	Markdown *Markdown
}

// RenderBubble renders one message. User messages align right, responder
// messages left.
func RenderBubble(theme *styles.Theme, msg model.Message, opts BubbleOptions) string {
	width := opts.Width
	if width <= 0 {
		width = theme.BubbleWidth()
	}

	name := msg.Sender.DisplayName()
	if msg.Sender == model.SenderAI && opts.Persona != "" {
		name = opts.Persona
	}
	header := theme.Timestamp.Render(name + " · " + msg.Timestamp.Local().Format("15:04"))

	var body []string
	if msg.HasImage() {
		body = append(body, theme.ImageBadge.Render(ImageLabel(msg.Image)))
	}
	if text := strings.TrimSpace(msg.Text); text != "" {
		if msg.Sender == model.SenderAI && opts.Markdown != nil {
			text = opts.Markdown.Render(text)
		}
		body = append(body, text)
	}

	style := theme.AIBubble
	align := lipgloss.Left
	if msg.IsUser() {
		style = theme.UserBubble
		align = lipgloss.Right
	}

	bubble := style.MaxWidth(width).Render(strings.Join(body, "\n"))
	block := lipgloss.JoinVertical(align, header, bubble)

	if theme.Width > 0 {
		return lipgloss.PlaceHorizontal(theme.Width, align, block)
	}
	return block
}

// ImageLabel describes an attached data URI, e.g. "[image/png 12.0 KB]".
func ImageLabel(uri string) string {
	mime := chatroom.ImageMIME(uri)
	if mime == "" {
		mime = "image"
	}
	_, payload, _ := strings.Cut(uri, ";base64,")
	size := float64(len(payload)) * 3 / 4 / 1024
	return fmt.Sprintf("[%s %.1f KB]", mime, size)
}
