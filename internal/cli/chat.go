// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatspaces/internal/chatroom"
	"github.com/jeranaias/chatspaces/internal/config"
	"github.com/jeranaias/chatspaces/internal/logging"
	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/ui/components"
)

const chatHelp = `Commands:
  /older          Load the previous page of history
  /image <path>   Attach an image to the next message (Enter sends it alone)
  /clear-image    Remove the attached image
  /history        Reprint the visible history
  /help           Show this help
  /quit           Leave the chatroom (also Ctrl-C, Ctrl-D)`

// replyGrace is how long past the reply delay the prompt waits for a reply.
const replyGrace = 5 * time.Second

func newChatCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <room-id>",
		Short: "Chat in a chatroom from the command line",
		Long: `Opens a line-mode conversation in a chatroom. The id may be shortened to
any unique prefix, as printed by 'chatspaces rooms list'.

` + chatHelp,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), g, logToStderr, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			id, err := e.findRoom(args[0])
			if err != nil {
				return err
			}
			room, _ := e.registry.Get(id)

			prompt := newLinePrompt()
			defer prompt.Close()

			session := newSession(e, id)
			defer session.Close()

			ctx := logging.WithLogger(cmd.Context(), e.logger)
			r := &repl{
				session:  session,
				notifier: e.notifier,
				prompt:   prompt,
				out:      cmd.OutOrStdout(),
				persona:  e.cfg.Chat.Persona,
				wait:     e.cfg.Chat.ReplyDelay.Duration + replyGrace,
			}
			return r.run(ctx, room.Title)
		},
	}
}

func newSession(e *env, id string) *chatroom.Session {
	cfg := e.cfg.Chat
	return chatroom.NewSession(id, e.logs, chatroom.Options{
		Scheduler:     e.sched,
		Notifier:      e.notifier,
		Logger:        e.logger,
		PageSize:      cfg.PageSize,
		PersistCap:    cfg.PersistCap,
		ReplyDelay:    cfg.ReplyDelay.Duration,
		MaxImageBytes: cfg.MaxImageBytes,
		Persona:       cfg.Persona,
	})
}

// =============================================================================
// LINE INPUT
// =============================================================================

// prompter reads one line of input.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// linePrompt is a liner-backed prompter with history kept in the config
// directory.
type linePrompt struct {
	line        *liner.State
	historyFile string
}

func newLinePrompt() *linePrompt {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	p := &linePrompt{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(p.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return p
}

func (p *linePrompt) Prompt(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (p *linePrompt) Close() {
	if err := os.MkdirAll(filepath.Dir(p.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = p.line.WriteHistory(f)
			f.Close()
		}
	}
	p.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	session  *chatroom.Session
	notifier *notify.Notifier
	prompt   prompter
	out      io.Writer
	persona  string
	wait     time.Duration
}

func (r *repl) run(ctx context.Context, title string) error {
	if _, err := r.session.Open(ctx); err != nil {
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Msg("chat history not loaded")
	}

	fmt.Fprintln(r.out, TitleStyle.Render(title))
	fmt.Fprintln(r.out, InfoStyle.Render("Type a message, or /help for commands."))
	r.printHistory()
	r.flushNotices()

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := r.prompt.Prompt("you> ")
		if err != nil {
			// Ctrl-C, Ctrl-D and closed input all end the chat.
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			// An attached image goes out on its own.
			if r.session.Compose().Image != "" {
				r.send(ctx, "")
				r.flushNotices()
			}
			continue
		}
		if strings.HasPrefix(input, "/") {
			if !r.command(ctx, input) {
				return nil
			}
			r.flushNotices()
			continue
		}
		r.send(ctx, input)
		r.flushNotices()
	}
}

// command handles a slash command and reports whether to keep reading.
func (r *repl) command(ctx context.Context, input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/q", "/exit":
		return false
	case "/help", "/h":
		fmt.Fprintln(r.out, InfoStyle.Render(chatHelp))
	case "/older":
		if added := r.session.LoadOlder(); added > 0 {
			r.printMessages(r.session.Messages()[:added])
			fmt.Fprintln(r.out, InfoStyle.Render(fmt.Sprintf("Loaded %d older messages.", added)))
		} else if !r.session.HasMore() {
			fmt.Fprintln(r.out, InfoStyle.Render(chatroom.BeginningOfHistory))
		}
	case "/image":
		if arg == "" {
			fmt.Fprintln(r.out, WarningStyle.Render("Usage: /image <path>"))
			break
		}
		// Rejections are reported through the notifier.
		if err := r.session.AttachImage(ctx, arg); err == nil {
			img := r.session.Compose()
			fmt.Fprintf(r.out, "%s %s %s\n", SuccessStyle.Render("[OK]"), img.ImageName, components.ImageLabel(img.Image))
		}
	case "/clear-image":
		r.session.ClearImage()
	case "/history":
		r.printHistory()
	default:
		fmt.Fprintf(r.out, "%s unknown command %s (try /help)\n", WarningStyle.Render("[!]"), name)
	}
	return true
}

// send submits text and blocks until the reply arrives.
func (r *repl) send(ctx context.Context, text string) {
	r.session.SetText(text)
	if _, err := r.session.Submit(ctx); err != nil && !model.IsPersistence(err) {
		fmt.Fprintf(r.out, "%s %v\n", ErrorStyle.Render("[X]"), err)
		return
	}

	fmt.Fprintln(r.out, InfoStyle.Render(r.persona+" is typing..."))
	if reply, ok := r.awaitReply(ctx); ok {
		r.printMessages([]model.Message{reply})
	}
}

// awaitReply drains session events until the pending reply lands.
func (r *repl) awaitReply(ctx context.Context) (model.Message, bool) {
	timeout := time.NewTimer(r.wait)
	defer timeout.Stop()

	var reply model.Message
	for {
		select {
		case <-ctx.Done():
			return model.Message{}, false
		case <-timeout.C:
			fmt.Fprintln(r.out, WarningStyle.Render("No reply yet."))
			return model.Message{}, false
		case ev, ok := <-r.session.Events():
			if !ok {
				return model.Message{}, false
			}
			switch {
			case ev.Kind == chatroom.EventMessage && ev.Message.Sender == model.SenderAI:
				reply = ev.Message
			case ev.Kind == chatroom.EventTyping && !ev.Typing:
				return reply, reply.ID != ""
			}
		}
	}
}

func (r *repl) printHistory() {
	msgs := r.session.Messages()
	if r.session.HasMore() {
		fmt.Fprintln(r.out, InfoStyle.Render("Type /older to load more messages."))
	}
	r.printMessages(msgs)
}

func (r *repl) printMessages(msgs []model.Message) {
	for _, m := range msgs {
		name := UserStyle.Render(m.Sender.DisplayName())
		if m.Sender == model.SenderAI {
			name = AIStyle.Render(r.persona)
		}
		line := fmt.Sprintf("%s %s", LabelStyle.Render(m.Timestamp.Local().Format("15:04")), name)
		if m.HasImage() {
			line += " " + components.ImageLabel(m.Image)
		}
		if m.Text != "" {
			line += ": " + m.Text
		}
		fmt.Fprintln(r.out, line)
	}
}

// flushNotices prints notices queued by the session without blocking.
func (r *repl) flushNotices() {
	for {
		select {
		case n := <-r.notifier.C():
			style, tag := noticeStyle(n.Kind)
			fmt.Fprintf(r.out, "%s %s\n", style.Render(tag), n.Text)
		default:
			return
		}
	}
}
