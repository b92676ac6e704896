// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/chatroom"
	"github.com/jeranaias/chatspaces/internal/logging"
	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/ui/components"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// Chatroom notices and hints.
const (
	CopiedNotice       = "Message copied!"
	CopyFailedNotice   = "Could not copy message."
	ReplyPendingNotice = "Please wait for the reply."
	LoadMoreHint       = "Scrolling up to load more messages..."
	AttachPrompt       = "Image path: "
)

// chatModel is one open chatroom. It is held by pointer because the session
// it owns must be closed exactly once.
type chatModel struct {
	svc   *Services
	theme *styles.Theme
	room  model.Chatroom

	session  *chatroom.Session
	viewport viewport.Model
	input    textinput.Model
	attach   textinput.Model
	typing   components.TypingIndicator
	markdown *components.Markdown

	attaching bool
	loading   bool

	width  int
	height int
}

func newChat(svc *Services, theme *styles.Theme, room model.Chatroom) *chatModel {
	cfg := svc.Config

	session := chatroom.NewSession(room.ID, svc.Logs, chatroom.Options{
		Scheduler:     svc.Scheduler,
		Notifier:      svc.Notifier,
		Logger:        svc.Logger,
		PageSize:      cfg.Chat.PageSize,
		PersistCap:    cfg.Chat.PersistCap,
		ReplyDelay:    cfg.Chat.ReplyDelay.Duration,
		MaxImageBytes: cfg.Chat.MaxImageBytes,
		Persona:       cfg.Chat.Persona,
	})
	if _, err := session.Open(svc.context()); err != nil {
		svc.Logger.Warn().Err(err).Str(logging.FieldChatroomID, room.ID).Msg("chat history not loaded")
	}

	input := textinput.New()
	input.Placeholder = "Type your message..."
	input.Prompt = "> "
	input.Focus()

	attach := textinput.New()
	attach.Prompt = AttachPrompt
	attach.Placeholder = "~/Pictures/photo.png"

	c := &chatModel{
		svc:      svc,
		theme:    theme,
		room:     room,
		session:  session,
		viewport: viewport.New(80, 20),
		input:    input,
		attach:   attach,
		typing:   components.NewTypingIndicator(cfg.Chat.Persona),
		loading:  cfg.UI.LoadDelay.Duration > 0,
	}
	c.rebuildMarkdown()
	c.render(true)
	return c
}

func (c *chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForEvent(c.session)}
	if c.loading {
		id := c.room.ID
		cmds = append(cmds, tea.Tick(c.svc.Config.UI.LoadDelay.Duration, func(time.Time) tea.Msg {
			return roomLoadedMsg{RoomID: id}
		}))
	}
	return tea.Batch(cmds...)
}

func (c *chatModel) close() {
	c.session.Close()
}

func (c *chatModel) setSize(w, h int) {
	c.width, c.height = w, h
	vh := h - 5
	if vh < 3 {
		vh = 3
	}
	c.viewport.Width = w
	c.viewport.Height = vh
	c.input.Width = max(w-4, 10)
	c.attach.Width = max(w-len(AttachPrompt)-2, 10)
	c.rebuildMarkdown()
	c.render(true)
}

func (c *chatModel) rebuildMarkdown() {
	if !c.svc.Config.UI.Markdown {
		c.markdown = nil
		return
	}
	width := c.theme.BubbleWidth() - 4
	md, err := components.NewMarkdown(c.theme.MarkdownStyle(), width)
	if err != nil {
		c.svc.Logger.Debug().Err(err).Msg("markdown disabled")
		c.markdown = nil
		return
	}
	c.markdown = md
}

// =============================================================================
// UPDATE
// =============================================================================

func (c *chatModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case roomLoadedMsg:
		if msg.RoomID == c.room.ID {
			c.loading = false
			c.render(true)
		}
		return nil

	case sessionEventMsg:
		if msg.RoomID != c.room.ID {
			return nil
		}
		return tea.Batch(c.handleEvent(msg.Event), waitForEvent(c.session))

	case spinner.TickMsg:
		var cmd tea.Cmd
		c.typing, cmd = c.typing.Update(msg)
		return cmd

	case copiedMsg:
		if msg.Err != nil {
			c.svc.Logger.Debug().Err(msg.Err).Msg("clipboard write failed")
			c.svc.Notifier.Error(CopyFailedNotice)
		} else {
			c.svc.Notifier.Info(CopiedNotice)
		}
		return nil

	case tea.KeyMsg:
		return c.handleKey(msg)

	case tea.MouseMsg:
		if msg.Type == tea.MouseWheelUp && c.viewport.AtTop() {
			c.loadOlder()
			return nil
		}
		var cmd tea.Cmd
		c.viewport, cmd = c.viewport.Update(msg)
		return cmd
	}

	return c.updateInput(msg)
}

func (c *chatModel) handleEvent(ev chatroom.Event) tea.Cmd {
	switch ev.Kind {
	case chatroom.EventMessage:
		c.render(true)
	case chatroom.EventTyping:
		if ev.Typing {
			return c.typing.Start()
		}
		c.typing.Stop()
		c.render(true)
	case chatroom.EventHistory:
		c.renderKeepingPosition()
	}
	return nil
}

func (c *chatModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if c.attaching {
		return c.handleAttachKey(msg)
	}

	switch msg.String() {
	case "esc":
		return func() tea.Msg { return backMsg{} }
	case "enter":
		return c.submit()
	case "ctrl+o":
		c.attaching = true
		c.input.Blur()
		c.attach.Reset()
		return c.attach.Focus()
	case "ctrl+x":
		c.session.ClearImage()
		return nil
	case "ctrl+y":
		return c.copyLast()
	case "up":
		if c.viewport.AtTop() {
			c.loadOlder()
			return nil
		}
		c.viewport.LineUp(1)
		return nil
	case "pgup":
		if c.viewport.AtTop() {
			c.loadOlder()
			return nil
		}
		c.viewport.ViewUp()
		return nil
	case "down":
		c.viewport.LineDown(1)
		return nil
	case "pgdown":
		c.viewport.ViewDown()
		return nil
	}
	return c.updateInput(msg)
}

func (c *chatModel) handleAttachKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		c.endAttach()
		return nil
	case "enter":
		path := strings.TrimSpace(c.attach.Value())
		c.endAttach()
		if path == "" {
			return nil
		}
		// Rejections are reported through the notifier.
		if err := c.session.AttachImage(c.svc.context(), path); err != nil {
			c.svc.Logger.Debug().Err(err).Str("path", path).Msg("image rejected")
		}
		return nil
	}
	var cmd tea.Cmd
	c.attach, cmd = c.attach.Update(msg)
	return cmd
}

func (c *chatModel) endAttach() {
	c.attaching = false
	c.attach.Blur()
	c.input.Focus()
}

func (c *chatModel) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *chatModel) submit() tea.Cmd {
	c.session.SetText(c.input.Value())
	_, err := c.session.Submit(c.svc.context())
	switch {
	case errors.Is(err, model.ErrEmptySubmission):
		return nil
	case errors.Is(err, chatroom.ErrReplyPending):
		c.svc.Notifier.Warn(ReplyPendingNotice)
		return nil
	case errors.Is(err, chatroom.ErrSessionClosed):
		return nil
	}
	// A persistence failure still delivers the message.
	c.input.Reset()
	return nil
}

// loadOlder reveals the previous page. Once history is exhausted the
// session posts its own one-time notice.
func (c *chatModel) loadOlder() {
	if c.loading {
		return
	}
	c.session.LoadOlder()
}

func (c *chatModel) copyLast() tea.Cmd {
	msgs := c.session.Messages()
	var text string
	for i := len(msgs) - 1; i >= 0; i-- {
		if strings.TrimSpace(msgs[i].Text) != "" {
			text = msgs[i].Text
			break
		}
	}
	if text == "" {
		return nil
	}
	write := c.svc.Clipboard
	return func() tea.Msg {
		return copiedMsg{Err: write(text)}
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// render rebuilds the viewport content, optionally scrolling to the newest
// message.
func (c *chatModel) render(toBottom bool) {
	c.viewport.SetContent(c.content())
	if toBottom {
		c.viewport.GotoBottom()
	}
}

// renderKeepingPosition rebuilds after older messages were prepended so the
// lines on screen stay put.
func (c *chatModel) renderKeepingPosition() {
	before := c.viewport.TotalLineCount()
	offset := c.viewport.YOffset
	c.viewport.SetContent(c.content())
	c.viewport.SetYOffset(offset + c.viewport.TotalLineCount() - before)
}

func (c *chatModel) content() string {
	if c.loading {
		return components.RenderSkeleton(c.theme, c.width)
	}

	var blocks []string
	if c.session.HasMore() {
		blocks = append(blocks, c.theme.Hint.Render(LoadMoreHint))
	}
	opts := components.BubbleOptions{
		Persona:  c.svc.Config.Chat.Persona,
		Markdown: c.markdown,
	}
	for _, msg := range c.session.Messages() {
		blocks = append(blocks, components.RenderBubble(c.theme, msg, opts))
	}
	return strings.Join(blocks, "\n\n")
}

func (c *chatModel) View() string {
	parts := []string{c.viewport.View()}

	if v := c.typing.View(); v != "" {
		parts = append(parts, v)
	} else {
		parts = append(parts, "")
	}

	if compose := c.session.Compose(); compose.Image != "" {
		label := components.ImageLabel(compose.Image)
		if compose.ImageName != "" {
			label = compose.ImageName + " " + label
		}
		parts = append(parts, c.theme.ImageBadge.Render(label+"  (C-x to remove)"))
	} else {
		parts = append(parts, "")
	}

	if c.attaching {
		parts = append(parts, c.theme.InputFocused.Render(c.attach.View()))
	} else {
		parts = append(parts, c.theme.InputFocused.Render(c.input.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
