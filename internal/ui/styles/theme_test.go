// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeForcedModes(t *testing.T) {
	dark := NewTheme(ModeDark)
	if !dark.IsDark {
		t.Error("dark mode should set IsDark")
	}
	if dark.MarkdownStyle() != "dark" {
		t.Errorf("MarkdownStyle() = %q, want dark", dark.MarkdownStyle())
	}

	light := NewTheme(ModeLight)
	if light.IsDark {
		t.Error("light mode should clear IsDark")
	}
	if light.MarkdownStyle() != "light" {
		t.Errorf("MarkdownStyle() = %q, want light", light.MarkdownStyle())
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme(ModeDark)

	for name, got := range map[string]string{
		"UserBubble":   theme.UserBubble.Render("hi"),
		"AIBubble":     theme.AIBubble.Render("hi"),
		"ListSelected": theme.ListSelected.Render("room"),
		"Dialog":       theme.Dialog.Render("sure?"),
	} {
		if got == "" {
			t.Errorf("%s rendered empty", name)
		}
	}
}

func TestBubbleWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{width: 0, want: 20},
		{width: 80, want: 60},
		{width: 400, want: 100},
	}

	theme := NewTheme(ModeDark)
	for _, tt := range tests {
		theme.SetSize(tt.width, 24)
		if got := theme.BubbleWidth(); got != tt.want {
			t.Errorf("BubbleWidth() at %d = %d, want %d", tt.width, got, tt.want)
		}
	}
}
