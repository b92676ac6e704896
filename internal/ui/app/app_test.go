// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatspaces/internal/auth"
	"github.com/jeranaias/chatspaces/internal/chatroom"
	"github.com/jeranaias/chatspaces/internal/config"
	"github.com/jeranaias/chatspaces/internal/directory"
	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/registry"
	"github.com/jeranaias/chatspaces/internal/storage"
	"github.com/jeranaias/chatspaces/internal/tasks"
	"github.com/jeranaias/chatspaces/internal/ui/components"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

var epoch = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

type staticCountries struct {
	countries []directory.Country
	err       error
}

func (s staticCountries) Countries(context.Context) ([]directory.Country, error) {
	return s.countries, s.err
}

type harness struct {
	svc     *Services
	sched   *tasks.ManualScheduler
	backend *storage.MemoryBackend
	theme   *styles.Theme
	copied  []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		sched:   tasks.NewManualScheduler(epoch),
		backend: storage.NewMemoryBackend(-1),
		theme:   styles.NewTheme(styles.ModeDark),
	}
	logs, err := storage.NewLogStore(h.backend, 4, zerolog.Nop())
	require.NoError(t, err)
	otp, err := auth.NewOTPService(auth.OTPOptions{Mode: auth.ModeFixed, Logger: zerolog.Nop()})
	require.NoError(t, err)

	notifier := notify.NewWithLimit(zerolog.Nop(), 64, rate.Inf, 1)
	cfg := config.Default()
	cfg.UI.LoadDelay = config.D(0)
	cfg.UI.Markdown = false

	h.svc = &Services{
		Config:  cfg,
		Backend: h.backend,
		Logs:    logs,
		Registry: registry.New(registry.Options{
			Backend:  h.backend,
			Persist:  true,
			Logs:     logs,
			Notifier: notifier,
			Logger:   zerolog.Nop(),
			Now:      h.sched.Now,
		}),
		Auth:      auth.NewStore(h.backend, zerolog.Nop()),
		OTP:       otp,
		Countries: staticCountries{countries: directory.Fallback()},
		Notifier:  notifier,
		Scheduler: h.sched,
		Logger:    zerolog.Nop(),
		Clipboard: func(text string) error {
			h.copied = append(h.copied, text)
			return nil
		},
	}
	return h
}

// notices drains every pending notice text.
func (h *harness) notices() []string {
	var out []string
	for {
		select {
		case n := <-h.svc.Notifier.C():
			out = append(out, n.Text)
		default:
			return out
		}
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyOf(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)
	l := newLogin(h.svc, h.theme)

	l, _ = l.Update(runes("9876543210"))
	l, cmd := l.Update(keyOf(tea.KeyEnter))
	require.NotNil(t, cmd, "valid phone starts sending")
	assert.True(t, l.busy)

	l, _ = l.Update(cmd())
	assert.Equal(t, phaseOTP, l.phase)
	assert.Equal(t, []string{"OTP sent to +919876543210"}, h.notices())

	l, _ = l.Update(otpAutofillMsg{Code: auth.DefaultDemoCode})
	assert.Equal(t, auth.DefaultDemoCode, l.otp.Value())
	assert.Equal(t, []string{"OTP: 123456 (demo)"}, h.notices())

	l, cmd = l.Update(keyOf(tea.KeyEnter))
	require.NotNil(t, cmd)
	_, cmd = l.Update(cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, loggedInMsg{}, cmd())

	assert.Equal(t, []string{LoggedInNotice}, h.notices())
	state := h.svc.Auth.State()
	assert.True(t, state.Authenticated)
	assert.Equal(t, "9876543210", state.PhoneNumber)
	assert.Equal(t, "+91", state.CountryCode)
}

func TestLoginRejectsShortPhone(t *testing.T) {
	h := newHarness(t)
	l := newLogin(h.svc, h.theme)

	l, _ = l.Update(runes("123"))
	l, cmd := l.Update(keyOf(tea.KeyEnter))

	assert.Nil(t, cmd)
	assert.Equal(t, model.ErrPhoneTooShort.Message, l.errs["phone"])
	assert.Equal(t, phasePhone, l.phase)
}

func TestLoginWrongOTP(t *testing.T) {
	h := newHarness(t)
	l := newLogin(h.svc, h.theme)

	l, _ = l.Update(runes("9876543210"))
	l, cmd := l.Update(keyOf(tea.KeyEnter))
	l, _ = l.Update(cmd())
	h.notices()

	l, _ = l.Update(runes("000000"))
	l, cmd = l.Update(keyOf(tea.KeyEnter))
	require.NotNil(t, cmd)
	l, _ = l.Update(cmd())

	assert.Equal(t, model.ErrInvalidOTP.Message, l.errs["otp"])
	assert.Equal(t, []string{InvalidOTPNotice}, h.notices())
	assert.False(t, h.svc.Auth.Authenticated())
}

func TestLoginCountriesFailure(t *testing.T) {
	h := newHarness(t)
	l := newLogin(h.svc, h.theme)

	l, _ = l.Update(countriesLoadedMsg{Countries: directory.Fallback(), Err: errors.New("offline")})

	assert.Equal(t, []string{CountriesFailedNotice}, h.notices())
	assert.Equal(t, "+91", l.form().CountryCode)
}

func TestLoginCountryJump(t *testing.T) {
	h := newHarness(t)
	l := newLogin(h.svc, h.theme)

	l, _ = l.Update(keyOf(tea.KeyShiftTab))
	require.Equal(t, fieldCountry, l.focus)
	l, _ = l.Update(runes("u"))
	assert.Equal(t, "+1", l.form().CountryCode)
	l, _ = l.Update(runes("u"))
	assert.Equal(t, "+44", l.form().CountryCode)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestDashboardWelcomeShownOnce(t *testing.T) {
	h := newHarness(t)

	first := newDashboard(h.svc, h.theme)
	assert.True(t, first.welcome)
	first, _ = first.Update(runes("x"))
	assert.False(t, first.welcome, "any key dismisses")

	second := newDashboard(h.svc, h.theme)
	assert.False(t, second.welcome)
}

func TestDashboardCreate(t *testing.T) {
	h := newHarness(t)
	d := newDashboard(h.svc, h.theme)
	d.welcome = false

	d, _ = d.Update(keyOf(tea.KeyEnter))
	assert.Equal(t, []string{TitleRequiredNotice}, h.notices())
	assert.Empty(t, d.rooms)

	d, _ = d.Update(runes("Team"))
	d, _ = d.Update(keyOf(tea.KeyEnter))
	assert.Equal(t, []string{RoomCreatedNotice}, h.notices())
	require.Len(t, d.rooms, 1)
	assert.Equal(t, "Team", d.rooms[0].Title)
	assert.Empty(t, d.title.Value())
}

func TestDashboardDeleteConfirm(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Registry.Create(context.Background(), "Team")
	require.NoError(t, err)

	d := newDashboard(h.svc, h.theme)
	d.welcome = false
	d.setFocus(focusList)

	d, _ = d.Update(keyOf(tea.KeyCtrlD))
	require.NotNil(t, d.confirm)
	d, _ = d.Update(keyOf(tea.KeyEsc))
	assert.Nil(t, d.confirm)
	assert.Len(t, d.rooms, 1, "cancel keeps the room")

	d, _ = d.Update(keyOf(tea.KeyCtrlD))
	d, _ = d.Update(runes("y"))
	assert.Empty(t, d.rooms)
	assert.Equal(t, 0, h.svc.Registry.Len())
	assert.Equal(t, []string{RoomDeletedNotice}, h.notices())
}

func TestDashboardDebouncedSearch(t *testing.T) {
	h := newHarness(t)
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := h.svc.Registry.Create(context.Background(), title)
		require.NoError(t, err)
	}
	d := newDashboard(h.svc, h.theme)
	d.welcome = false
	d, _ = d.Update(keyOf(tea.KeyTab))
	require.Equal(t, focusSearch, d.focus)

	d, _ = d.Update(runes("a"))
	d, _ = d.Update(runes("l"))
	assert.Len(t, d.rooms, 3, "filter waits for the quiet period")

	h.sched.Advance(h.svc.Config.UI.SearchDebounce.Duration)
	res := <-d.results
	assert.Equal(t, "al", res.Filter)

	d, _ = d.Update(res)
	require.Len(t, d.rooms, 1)
	assert.Equal(t, "Alpha", d.rooms[0].Title)
}

func TestDashboardOpenRoom(t *testing.T) {
	h := newHarness(t)
	room, err := h.svc.Registry.Create(context.Background(), "Team")
	require.NoError(t, err)

	d := newDashboard(h.svc, h.theme)
	d.welcome = false
	d.setFocus(focusList)

	_, cmd := d.Update(keyOf(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, openRoomMsg{Room: room}, cmd())
}

// =============================================================================
// CHATROOM
// =============================================================================

// pump feeds buffered session events to the chat model.
func pump(c *chatModel) {
	for {
		select {
		case ev, ok := <-c.session.Events():
			if !ok {
				return
			}
			c.Update(sessionEventMsg{RoomID: c.room.ID, Event: ev})
		default:
			return
		}
	}
}

func TestChatSendAndReply(t *testing.T) {
	h := newHarness(t)
	c := newChat(h.svc, h.theme, model.Chatroom{ID: "room-1", Title: "Team"})
	defer c.close()
	start := len(c.session.Messages())

	c.input.SetValue("hello")
	c.Update(keyOf(tea.KeyEnter))
	pump(c)
	assert.Empty(t, c.input.Value())
	assert.True(t, c.typing.Active())
	assert.Len(t, c.session.Messages(), start+1)

	c.input.SetValue("again")
	c.Update(keyOf(tea.KeyEnter))
	assert.Equal(t, []string{ReplyPendingNotice}, h.notices())
	assert.Equal(t, "again", c.input.Value(), "rejected input is kept")

	h.sched.Advance(h.svc.Config.Chat.ReplyDelay.Duration)
	pump(c)
	assert.False(t, c.typing.Active())

	msgs := c.session.Messages()
	require.Len(t, msgs, start+2)
	last := msgs[len(msgs)-1]
	assert.Equal(t, model.SenderAI, last.Sender)
	assert.Equal(t, `Gemini's reply to: "hello" 🤖`, last.Text)
}

func TestChatCopyLastMessage(t *testing.T) {
	h := newHarness(t)
	c := newChat(h.svc, h.theme, model.Chatroom{ID: "room-1"})
	defer c.close()

	cmd := c.Update(keyOf(tea.KeyCtrlY))
	require.NotNil(t, cmd)
	c.Update(cmd())

	msgs := c.session.Messages()
	require.Len(t, h.copied, 1)
	assert.Equal(t, msgs[len(msgs)-1].Text, h.copied[0])
	assert.Equal(t, []string{CopiedNotice}, h.notices())
}

func TestChatUpAtTopLoadsOlder(t *testing.T) {
	h := newHarness(t)
	h.theme.SetSize(80, 24)
	c := newChat(h.svc, h.theme, model.Chatroom{ID: "room-1"})
	defer c.close()
	c.setSize(80, 20)
	require.True(t, c.session.HasMore())

	c.viewport.GotoTop()
	c.Update(keyOf(tea.KeyUp))
	pump(c)

	assert.Equal(t, 2, c.session.Page())
	assert.Len(t, c.session.Messages(), 2*chatroom.DefaultPageSize)
	assert.Greater(t, c.viewport.YOffset, 0, "view stays on the lines that were visible")
}

func TestChatAttachRejectsMissingFile(t *testing.T) {
	h := newHarness(t)
	c := newChat(h.svc, h.theme, model.Chatroom{ID: "room-1"})
	defer c.close()

	c.Update(keyOf(tea.KeyCtrlO))
	require.True(t, c.attaching)
	c.Update(runes(t.TempDir() + "/missing.png"))
	c.Update(keyOf(tea.KeyEnter))

	assert.False(t, c.attaching)
	assert.Empty(t, c.session.Compose().Image)
	assert.Len(t, h.notices(), 1)
}

// =============================================================================
// ROOT MODEL
// =============================================================================

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestRootNavigation(t *testing.T) {
	h := newHarness(t)
	m := New(h.svc, h.theme)
	assert.Equal(t, ScreenLogin, m.Screen())

	m = update(t, m, loggedInMsg{})
	assert.Equal(t, ScreenDashboard, m.Screen())

	room, err := h.svc.Registry.Create(context.Background(), "Team")
	require.NoError(t, err)
	m = update(t, m, openRoomMsg{Room: room})
	require.Equal(t, ScreenChatroom, m.Screen())
	session := m.chat.session

	m = update(t, m, backMsg{})
	assert.Equal(t, ScreenDashboard, m.Screen())
	assert.True(t, session.Closed())
	assert.Len(t, m.dashboard.rooms, 1)
}

func TestRootStartsOnDashboardWhenLoggedIn(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.Auth.Login(context.Background(), "9876543210", "+91", epoch))

	m := New(h.svc, h.theme)
	assert.Equal(t, ScreenDashboard, m.Screen())
}

func TestRootLogout(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.Auth.Login(context.Background(), "9876543210", "+91", epoch))
	m := New(h.svc, h.theme)

	m = update(t, m, keyOf(tea.KeyCtrlL))

	assert.Equal(t, ScreenLogin, m.Screen())
	assert.False(t, h.svc.Auth.Authenticated())
	assert.Contains(t, h.notices(), LoggedOutNotice)
}

func TestRootReloadsExternalRoomChange(t *testing.T) {
	h := newHarness(t)
	m := New(h.svc, h.theme)
	m = update(t, m, loggedInMsg{})
	h.notices()

	rooms := []model.Chatroom{model.NewChatroom("From elsewhere", epoch)}
	require.NoError(t, storage.PutJSON(context.Background(), h.backend, storage.KeyChatrooms, rooms))

	m = update(t, m, storeChangedMsg{Key: storage.KeyChatrooms})
	assert.Equal(t, 1, h.svc.Registry.Len())
	require.Len(t, m.dashboard.rooms, 1)
	assert.Equal(t, []string{RoomsChangedNotice}, h.notices())
}

func TestRootToastsFromNotices(t *testing.T) {
	h := newHarness(t)
	m := New(h.svc, h.theme)

	m = update(t, m, components.NoticeMsg{Notice: notify.Notice{Kind: notify.KindSuccess, Text: "Chatroom deleted!", At: epoch}})
	assert.Equal(t, 1, m.toasts.Len())
	assert.Contains(t, m.View(), "Chatroom deleted!")
}
