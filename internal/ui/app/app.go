// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/auth"
	"github.com/jeranaias/chatspaces/internal/config"
	"github.com/jeranaias/chatspaces/internal/directory"
	"github.com/jeranaias/chatspaces/internal/logging"
	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/registry"
	"github.com/jeranaias/chatspaces/internal/storage"
	"github.com/jeranaias/chatspaces/internal/tasks"
	"github.com/jeranaias/chatspaces/internal/ui/components"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// Notices posted by the root model.
const (
	LoggedOutNotice      = "Logged out."
	RoomsChangedNotice   = "Chatrooms changed in another window."
	HistoryChangedNotice = "Chat history changed in another window."
)

// CountrySource supplies the login country list.
type CountrySource interface {
	Countries(ctx context.Context) ([]directory.Country, error)
}

// Services are the collaborators shared by every screen.
type Services struct {
	Config    *config.Config
	Backend   storage.Backend
	Logs      *storage.LogStore
	Registry  *registry.Registry
	Auth      *auth.Store
	OTP       *auth.OTPService
	Countries CountrySource
	Notifier  *notify.Notifier
	Scheduler tasks.Scheduler
	Logger    zerolog.Logger

	// Changes reports keys written by other processes; nil disables it.
	Changes <-chan string

	// Clipboard defaults to the system clipboard.
	Clipboard func(text string) error
}

func (s *Services) context() context.Context {
	return logging.WithLogger(context.Background(), s.Logger)
}

func (s *Services) fillDefaults() {
	if s.Config == nil {
		s.Config = config.Default()
	}
	if s.Scheduler == nil {
		s.Scheduler = tasks.NewClockScheduler()
	}
	if s.Clipboard == nil {
		s.Clipboard = clipboard.WriteAll
	}
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// Screen identifies the active screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenDashboard
	ScreenChatroom
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenDashboard:
		return "dashboard"
	case ScreenChatroom:
		return "chatroom"
	default:
		return "unknown"
	}
}

// Model is the root Bubble Tea model. It owns navigation, toasts and the
// header/footer; screens own their content.
type Model struct {
	svc    *Services
	theme  *styles.Theme
	keys   KeyMap
	help   help.Model
	toasts *components.ToastManager
	logger zerolog.Logger

	screen    Screen
	login     loginModel
	dashboard dashboardModel
	chat      *chatModel

	width  int
	height int
}

// New creates the root model. A persisted login skips the login screen.
func New(svc *Services, theme *styles.Theme) Model {
	svc.fillDefaults()
	if theme == nil {
		theme = styles.NewTheme(svc.Config.UI.Theme)
	}

	m := Model{
		svc:    svc,
		theme:  theme,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		toasts: components.NewToastManager(),
		logger: logging.Component(svc.Logger, "tui"),
	}
	if svc.Auth != nil && svc.Auth.Authenticated() {
		m.screen = ScreenDashboard
		m.dashboard = newDashboard(svc, theme)
	} else {
		m.screen = ScreenLogin
		m.login = newLogin(svc, theme)
	}
	return m
}

// Screen returns the active screen.
func (m Model) Screen() Screen {
	return m.screen
}

// Init starts the notice, toast and change-watch loops plus the first screen.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		components.WaitForNotice(m.svc.Notifier),
		components.ToastTickCmd(),
		waitForChange(m.svc.Changes),
	}
	switch m.screen {
	case ScreenLogin:
		cmds = append(cmds, m.login.Init())
	case ScreenDashboard:
		cmds = append(cmds, m.dashboard.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.resized()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Logout) && m.screen != ScreenLogin:
			return m.logout()
		}

	case components.NoticeMsg:
		m.toasts.Add(components.ToastFromNotice(msg.Notice))
		return m, components.WaitForNotice(m.svc.Notifier)

	case components.ToastTickMsg:
		m.toasts.Tick(msg.Time)
		return m, components.ToastTickCmd()

	case storeChangedMsg:
		m.storeChanged(msg.Key)
		return m, waitForChange(m.svc.Changes)

	case loggedInMsg:
		m.screen = ScreenDashboard
		m.dashboard = newDashboard(m.svc, m.theme)
		m.dashboard.setSize(m.bodySize())
		return m, m.dashboard.Init()

	case openRoomMsg:
		chat := newChat(m.svc, m.theme, msg.Room)
		chat.setSize(m.bodySize())
		m.chat = chat
		m.screen = ScreenChatroom
		m.logger.Debug().Str(logging.FieldChatroomID, msg.Room.ID).Msg("chatroom opened")
		return m, chat.Init()

	case backMsg:
		m.closeChat()
		m.screen = ScreenDashboard
		m.dashboard.refresh()
		return m, nil
	}

	return m.forward(msg)
}

// forward hands msg to the active screen.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case ScreenLogin:
		m.login, cmd = m.login.Update(msg)
	case ScreenDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ScreenChatroom:
		if m.chat != nil {
			cmd = m.chat.Update(msg)
		}
	}
	return m, cmd
}

// resized propagates the body size to every live screen.
func (m *Model) resized() {
	w, h := m.bodySize()
	m.login.setSize(w, h)
	m.dashboard.setSize(w, h)
	if m.chat != nil {
		m.chat.setSize(w, h)
	}
}

// bodySize is the area between header and footer.
func (m Model) bodySize() (int, int) {
	h := m.height - 4
	if h < 5 {
		h = 5
	}
	return m.width, h
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	m.closeChat()
	m.dashboard.stop()
	if m.svc.Auth != nil {
		if err := m.svc.Auth.Logout(m.svc.context()); err != nil {
			m.logger.Warn().Err(err).Msg("logout not persisted")
		}
	}
	m.svc.Notifier.Info(LoggedOutNotice)

	m.screen = ScreenLogin
	m.login = newLogin(m.svc, m.theme)
	m.login.setSize(m.bodySize())
	return m, m.login.Init()
}

func (m *Model) closeChat() {
	if m.chat != nil {
		m.chat.close()
		m.chat = nil
	}
}

func (m *Model) shutdown() {
	m.closeChat()
	m.dashboard.stop()
}

// storeChanged reacts to a write made by another process.
func (m *Model) storeChanged(key string) {
	switch {
	case key == storage.KeyChatrooms:
		if m.svc.Registry == nil {
			return
		}
		if err := m.svc.Registry.Load(m.svc.context()); err != nil {
			m.logger.Warn().Err(err).Msg("chatroom reload failed")
			return
		}
		m.dashboard.refresh()
		if m.screen == ScreenDashboard {
			m.svc.Notifier.Info(RoomsChangedNotice)
		}
	case strings.HasPrefix(key, storage.LogKeyPrefix):
		if m.svc.Logs != nil {
			m.svc.Logs.Invalidate(key)
		}
		id, _ := storage.ChatroomIDFromKey(key)
		if m.chat != nil && m.chat.room.ID == id {
			m.svc.Notifier.Info(HistoryChangedNotice)
		}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the header, the active screen, toasts and key help.
func (m Model) View() string {
	var body string
	var bindings []key.Binding
	subtitle := ""

	switch m.screen {
	case ScreenLogin:
		body = m.login.View()
		bindings = m.keys.LoginHelp()
	case ScreenDashboard:
		body = m.dashboard.View()
		bindings = m.keys.DashboardHelp()
	case ScreenChatroom:
		if m.chat != nil {
			body = m.chat.View()
			subtitle = m.chat.room.Title
		}
		bindings = m.keys.ChatHelp()
	}
	if m.screen != ScreenLogin && m.svc.Auth != nil && subtitle == "" {
		subtitle = m.svc.Auth.State().Display()
	}

	parts := []string{m.renderHeader(subtitle), body}
	if stack := components.RenderToastStack(m.toasts.Toasts(), m.width); stack != "" {
		parts = append(parts, stack)
	}
	parts = append(parts, m.theme.Hint.Render(m.help.ShortHelpView(bindings)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader(subtitle string) string {
	title := m.theme.HeaderTitle.Render("Gemini Chat Spaces")
	if subtitle != "" {
		title += "  " + m.theme.HeaderSubtitle.Render(subtitle)
	}
	header := m.theme.Header
	if m.width > 0 {
		header = header.Width(m.width)
	}
	return header.Render(title)
}

// =============================================================================
// PROGRAM
// =============================================================================

// Run starts the TUI on the alternate screen and blocks until it exits.
func Run(ctx context.Context, svc *Services) error {
	m := New(svc, nil)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	return err
}
