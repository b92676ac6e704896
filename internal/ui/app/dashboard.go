// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/registry"
	"github.com/jeranaias/chatspaces/internal/storage"
	"github.com/jeranaias/chatspaces/internal/ui/components"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
	"github.com/jeranaias/chatspaces/internal/util"
)

// Dashboard notices.
const (
	RoomCreatedNotice   = "Chatroom created successfully!"
	TitleRequiredNotice = "Chatroom title required!"
	RoomDeletedNotice   = "Chatroom deleted!"
	NoRoomsText         = "No chatrooms found. Create one to get started!"
)

type dashFocus int

const (
	focusTitle dashFocus = iota
	focusSearch
	focusList
)

// dashboardModel lists, creates, filters and deletes chatrooms.
type dashboardModel struct {
	svc   *Services
	theme *styles.Theme

	title  textinput.Model
	search textinput.Model
	focus  dashFocus

	// filter is the last applied search; rooms is its result.
	filter   string
	rooms    []model.Chatroom
	selected int

	searcher *registry.Search
	results  chan searchResultMsg

	confirm *components.ConfirmDialog
	welcome bool

	width  int
	height int
}

func newDashboard(svc *Services, theme *styles.Theme) dashboardModel {
	title := textinput.New()
	title.Placeholder = "e.g., Team Discussion, Project Alpha Chat"
	title.CharLimit = 80
	title.Prompt = "+ "
	title.Focus()

	search := textinput.New()
	search.Placeholder = "Search chatrooms by title..."
	search.CharLimit = 80
	search.Prompt = "/ "

	d := dashboardModel{
		svc:     svc,
		theme:   theme,
		title:   title,
		search:  search,
		results: make(chan searchResultMsg, 1),
	}
	if svc.Registry != nil {
		d.searcher = registry.NewSearch(svc.Registry, svc.Scheduler, svc.Config.UI.SearchDebounce.Duration)
	}
	d.welcome = d.firstVisit()
	d.refresh()
	return d
}

// firstVisit reports whether the welcome overlay is due and records that it
// has been shown.
func (d *dashboardModel) firstVisit() bool {
	b := d.svc.Backend
	if b == nil {
		return false
	}
	ctx := d.svc.context()
	_, err := b.Get(ctx, storage.KeyWelcomeShown)
	if err == nil {
		return false
	}
	if !errors.Is(err, storage.ErrNotFound) {
		d.svc.Logger.Warn().Err(err).Msg("welcome flag unreadable")
		return false
	}
	if err := b.Put(ctx, storage.KeyWelcomeShown, []byte("true")); err != nil {
		d.svc.Logger.Warn().Err(err).Msg("welcome flag not saved")
	}
	return true
}

func (d dashboardModel) Init() tea.Cmd {
	if d.svc == nil {
		return nil
	}
	return tea.Batch(textinput.Blink, waitForSearch(d.results))
}

func (d *dashboardModel) setSize(w, h int) {
	d.width, d.height = w, h
}

// refresh re-reads the registry with the applied filter.
func (d *dashboardModel) refresh() {
	if d.svc == nil || d.svc.Registry == nil {
		return
	}
	d.rooms = d.svc.Registry.List(d.filter)
	d.clampSelection()
}

func (d *dashboardModel) clampSelection() {
	if d.selected >= len(d.rooms) {
		d.selected = len(d.rooms) - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}
}

// stop cancels a pending search.
func (d *dashboardModel) stop() {
	if d.searcher != nil {
		d.searcher.Stop()
	}
}

// =============================================================================
// UPDATE
// =============================================================================

func (d dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultMsg:
		if msg.Filter == d.search.Value() {
			d.filter = msg.Filter
			d.rooms = msg.Rooms
			d.clampSelection()
		}
		return d, waitForSearch(d.results)

	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return d.updateInput(msg)
}

func (d dashboardModel) handleKey(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if d.welcome {
		d.welcome = false
		return d, nil
	}
	if d.confirm != nil {
		return d.handleConfirm(msg)
	}

	switch msg.String() {
	case "tab":
		d.setFocus((d.focus + 1) % 3)
		return d, nil
	case "shift+tab":
		d.setFocus((d.focus + 2) % 3)
		return d, nil
	case "esc":
		d.setFocus(focusList)
		return d, nil
	}

	switch d.focus {
	case focusTitle:
		if msg.String() == "enter" {
			d.create()
			return d, nil
		}
	case focusList:
		return d.handleListKey(msg)
	}
	return d.updateInput(msg)
}

func (d dashboardModel) handleListKey(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if d.selected > 0 {
			d.selected--
		}
	case "down", "j":
		if d.selected < len(d.rooms)-1 {
			d.selected++
		}
	case "enter":
		if room, ok := d.current(); ok {
			return d, func() tea.Msg { return openRoomMsg{Room: room} }
		}
	case "ctrl+d", "delete", "d":
		if room, ok := d.current(); ok {
			dlg := components.NewDeleteDialog(room.ID, room.Title)
			d.confirm = &dlg
		}
	}
	return d, nil
}

func (d dashboardModel) handleConfirm(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	switch d.confirm.HandleKey(msg) {
	case components.ConfirmAccepted:
		id := d.confirm.Subject
		d.confirm = nil
		if err := d.svc.Registry.Delete(d.svc.context(), id); err != nil && !model.IsPersistence(err) {
			d.svc.Logger.Warn().Err(err).Msg("chatroom delete failed")
			return d, nil
		}
		d.svc.Notifier.Success(RoomDeletedNotice)
		d.refresh()
	case components.ConfirmCanceled:
		d.confirm = nil
	}
	return d, nil
}

func (d *dashboardModel) create() {
	if d.svc.Registry == nil {
		return
	}
	_, err := d.svc.Registry.Create(d.svc.context(), d.title.Value())
	switch {
	case errors.Is(err, model.ErrEmptyTitle):
		d.svc.Notifier.Error(TitleRequiredNotice)
		return
	case err != nil && !model.IsPersistence(err):
		d.svc.Logger.Warn().Err(err).Msg("chatroom create failed")
		return
	}
	d.svc.Notifier.Success(RoomCreatedNotice)
	d.title.Reset()
	d.refresh()
}

func (d dashboardModel) updateInput(msg tea.Msg) (dashboardModel, tea.Cmd) {
	var cmd tea.Cmd
	switch d.focus {
	case focusTitle:
		d.title, cmd = d.title.Update(msg)
	case focusSearch:
		before := d.search.Value()
		d.search, cmd = d.search.Update(msg)
		if after := d.search.Value(); after != before && d.searcher != nil {
			results := d.results
			d.searcher.Update(after, func(filter string, rooms []model.Chatroom) {
				deliverLatest(results, searchResultMsg{Filter: filter, Rooms: rooms})
			})
		}
	}
	return d, cmd
}

// deliverLatest replaces any undelivered result with res.
func deliverLatest(ch chan searchResultMsg, res searchResultMsg) {
	for {
		select {
		case ch <- res:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (d *dashboardModel) setFocus(f dashFocus) {
	d.focus = f
	d.title.Blur()
	d.search.Blur()
	switch f {
	case focusTitle:
		d.title.Focus()
	case focusSearch:
		d.search.Focus()
	}
}

func (d dashboardModel) current() (model.Chatroom, bool) {
	if d.selected < 0 || d.selected >= len(d.rooms) {
		return model.Chatroom{}, false
	}
	return d.rooms[d.selected], true
}

// =============================================================================
// VIEW
// =============================================================================

func (d dashboardModel) View() string {
	t := d.theme
	if d.welcome {
		return components.RenderWelcome(t, d.width, d.height)
	}
	if d.confirm != nil {
		return d.confirm.View(t, d.width, d.height)
	}

	inputWidth := d.width - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	box := func(view string, focused bool) string {
		style := t.Input
		if focused {
			style = t.InputFocused
		}
		return style.Width(inputWidth).Render(view)
	}

	rows := []string{
		t.Label.Render("Create New Chatroom"),
		box(d.title.View(), d.focus == focusTitle),
		t.Label.Render("Find Chatrooms"),
		box(d.search.View(), d.focus == focusSearch),
		"",
	}

	if len(d.rooms) == 0 {
		rows = append(rows, t.Hint.Render(NoRoomsText))
	}
	for i, room := range d.rooms {
		line := util.TruncateWidth(room.Title, inputWidth-24)
		meta := t.ListMeta.Render(fmt.Sprintf("  created %s", room.CreatedAt.Local().Format("Jan 2 15:04")))
		style := t.ListItem
		if i == d.selected && d.focus == focusList {
			style = t.ListSelected
		}
		rows = append(rows, style.Render(line)+meta)
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
