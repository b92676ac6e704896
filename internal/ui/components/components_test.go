// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/notify"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

var epoch = time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)

// =============================================================================
// TOAST TESTS
// =============================================================================

func TestNewToastDurations(t *testing.T) {
	tests := []struct {
		kind notify.Kind
		want time.Duration
	}{
		{notify.KindInfo, DefaultToastDuration},
		{notify.KindSuccess, DefaultToastDuration},
		{notify.KindWarning, WarningToastDuration},
		{notify.KindError, ErrorToastDuration},
	}

	for _, tt := range tests {
		toast := NewToast(tt.kind, "x", epoch)
		if toast.Duration != tt.want {
			t.Errorf("NewToast(%s).Duration = %v, want %v", tt.kind, toast.Duration, tt.want)
		}
	}
}

func TestToastExpired(t *testing.T) {
	toast := NewToast(notify.KindInfo, "saved", epoch)

	if toast.Expired(epoch.Add(time.Second)) {
		t.Error("toast should not expire after 1s")
	}
	if !toast.Expired(epoch.Add(DefaultToastDuration)) {
		t.Error("toast should expire at its duration")
	}
}

func TestToastFromNotice(t *testing.T) {
	toast := ToastFromNotice(notify.Notice{Kind: notify.KindError, Text: "boom", At: epoch})

	if toast.Text != "boom" || toast.Kind != notify.KindError || !toast.CreatedAt.Equal(epoch) {
		t.Errorf("ToastFromNotice() = %+v", toast)
	}
}

func TestToastManager(t *testing.T) {
	m := NewToastManager()

	first := m.Add(NewToast(notify.KindInfo, "one", epoch))
	second := m.Add(NewToast(notify.KindError, "two", epoch))
	if first == second {
		t.Fatal("toast IDs should be unique")
	}

	toasts := m.Toasts()
	if len(toasts) != 2 || toasts[0].Text != "two" {
		t.Fatalf("Toasts() should list newest first, got %+v", toasts)
	}

	m.Dismiss(second)
	if m.Len() != 1 {
		t.Errorf("Len() after Dismiss = %d, want 1", m.Len())
	}

	// The info toast expires before the error toast would have.
	m.Add(NewToast(notify.KindError, "three", epoch))
	m.Tick(epoch.Add(DefaultToastDuration))
	toasts = m.Toasts()
	if len(toasts) != 1 || toasts[0].Text != "three" {
		t.Errorf("Tick() should keep only unexpired toasts, got %+v", toasts)
	}

	m.DismissNewest()
	if m.Len() != 0 {
		t.Errorf("Len() after DismissNewest = %d, want 0", m.Len())
	}
}

func TestToastManagerCapsVisible(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < MaxToasts+3; i++ {
		m.Add(NewToast(notify.KindInfo, "n", epoch))
	}
	if m.Len() != MaxToasts {
		t.Errorf("Len() = %d, want %d", m.Len(), MaxToasts)
	}
}

func TestWaitForNotice(t *testing.T) {
	n := notify.New(zerolog.Nop())
	n.Success("Chatroom deleted!")

	msg := WaitForNotice(n)()
	notice, ok := msg.(NoticeMsg)
	if !ok {
		t.Fatalf("WaitForNotice() returned %T", msg)
	}
	if notice.Notice.Text != "Chatroom deleted!" || notice.Notice.Kind != notify.KindSuccess {
		t.Errorf("notice = %+v", notice.Notice)
	}

	if WaitForNotice(nil) != nil {
		t.Error("WaitForNotice(nil) should return nil")
	}
}

func TestRenderToastStack(t *testing.T) {
	if RenderToastStack(nil, 80) != "" {
		t.Error("empty stack should render empty")
	}

	out := RenderToastStack([]Toast{
		NewToast(notify.KindSuccess, "Chatroom created successfully!", epoch),
		NewToast(notify.KindError, "Chatroom title required!", epoch),
	}, 80)
	for _, want := range []string{"Chatroom created", "Chatroom title required!", "[OK]", "[X]"} {
		if !strings.Contains(out, want) {
			t.Errorf("stack missing %q", want)
		}
	}
}

// =============================================================================
// TYPING INDICATOR TESTS
// =============================================================================

func TestTypingIndicator(t *testing.T) {
	ti := NewTypingIndicator("Gemini")

	if ti.View() != "" {
		t.Error("inactive indicator should render empty")
	}
	if cmd := ti.Start(); cmd == nil {
		t.Error("Start() should return a tick")
	}
	if cmd := ti.Start(); cmd != nil {
		t.Error("second Start() should not start another tick loop")
	}
	if !strings.Contains(ti.View(), "Gemini is typing") {
		t.Errorf("View() = %q", ti.View())
	}

	ti.Stop()
	if ti.Active() {
		t.Error("Stop() should deactivate")
	}
	if _, cmd := ti.Update(struct{}{}); cmd != nil {
		t.Error("inactive Update should not tick")
	}
}

// =============================================================================
// BUBBLE TESTS
// =============================================================================

func TestRenderBubble(t *testing.T) {
	theme := styles.NewTheme(styles.ModeDark)
	theme.SetSize(80, 24)

	user := model.NewUserMessage("hello there", "", epoch)
	out := RenderBubble(theme, user, BubbleOptions{})
	if !strings.Contains(out, "hello there") || !strings.Contains(out, "You") {
		t.Errorf("user bubble = %q", out)
	}

	ai := model.NewAIMessage("reply", epoch)
	out = RenderBubble(theme, ai, BubbleOptions{Persona: "Bard"})
	if !strings.Contains(out, "Bard") {
		t.Errorf("responder bubble should use persona, got %q", out)
	}
}

func TestRenderBubbleImageOnly(t *testing.T) {
	theme := styles.NewTheme(styles.ModeDark)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, 3072))
	msg := model.NewUserMessage("", uri, epoch)

	out := RenderBubble(theme, msg, BubbleOptions{Width: 60})
	if !strings.Contains(out, "[image/png 3.0 KB]") {
		t.Errorf("image bubble = %q", out)
	}
}

func TestNilMarkdownRendersPlain(t *testing.T) {
	var md *Markdown
	if got := md.Render("**bold**"); got != "**bold**" {
		t.Errorf("nil Markdown.Render() = %q", got)
	}
}

func TestMarkdownRender(t *testing.T) {
	md, err := NewMarkdown("dark", 60)
	if err != nil {
		t.Fatalf("NewMarkdown() error = %v", err)
	}
	out := md.Render("**bold** text")
	if !strings.Contains(out, "bold") || strings.Contains(out, "**") {
		t.Errorf("Render() = %q", out)
	}
}

// =============================================================================
// DIALOG AND OVERLAY TESTS
// =============================================================================

func TestConfirmDialogKeys(t *testing.T) {
	key := func(s string) tea.KeyMsg {
		switch s {
		case "enter":
			return tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			return tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			return tea.KeyMsg{Type: tea.KeyTab}
		}
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}

	d := NewDeleteDialog("r1", "Team")
	if d.HandleKey(key("enter")) != ConfirmCanceled {
		t.Error("enter on the initial focus should cancel")
	}

	d = NewDeleteDialog("r1", "Team")
	if d.HandleKey(key("tab")) != ConfirmPending || !d.ConfirmFocused() {
		t.Fatal("tab should move focus to confirm")
	}
	if d.HandleKey(key("enter")) != ConfirmAccepted {
		t.Error("enter on confirm should accept")
	}

	if d.HandleKey(key("y")) != ConfirmAccepted {
		t.Error("y should accept")
	}
	if d.HandleKey(key("esc")) != ConfirmCanceled {
		t.Error("esc should cancel")
	}
}

func TestNewDeleteDialogMessage(t *testing.T) {
	d := NewDeleteDialog("r1", "Team")
	want := `Are you sure you want to delete "Team"? This action cannot be undone.`
	if d.Message != want {
		t.Errorf("Message = %q, want %q", d.Message, want)
	}

	d = NewDeleteDialog("r1", "")
	if !strings.Contains(d.Message, "this chatroom") {
		t.Errorf("untitled Message = %q", d.Message)
	}
}

func TestOverlaysRender(t *testing.T) {
	theme := styles.NewTheme(styles.ModeLight)

	welcome := RenderWelcome(theme, 80, 24)
	if !strings.Contains(welcome, WelcomeSubtitle) || !strings.Contains(welcome, WelcomeButton) {
		t.Errorf("welcome overlay missing text")
	}

	skeleton := RenderSkeleton(theme, 40)
	if got := strings.Count(skeleton, "█"); got == 0 {
		t.Error("skeleton should render placeholder bars")
	}
}
