// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// SkeletonRows is the number of placeholder bubbles.
const SkeletonRows = 6

// skeletonWidths are fractions of the bubble width, in percent.
var skeletonWidths = []int{55, 70, 45, 80, 60, 50}

// RenderSkeleton renders alternating placeholder bubbles, responder rows on
// the left and user rows on the right.
func RenderSkeleton(theme *styles.Theme, width int) string {
	if width <= 0 {
		width = 80
	}
	bubble := width * 3 / 4

	rows := make([]string, 0, SkeletonRows*2)
	for i := 0; i < SkeletonRows; i++ {
		w := bubble * skeletonWidths[i%len(skeletonWidths)] / 100
		if w < 4 {
			w = 4
		}
		bar := theme.Skeleton.Render(strings.Repeat("█", w))

		align := lipgloss.Left
		if i%2 == 1 {
			align = lipgloss.Right
		}
		rows = append(rows, lipgloss.PlaceHorizontal(width, align, bar), "")
	}
	return strings.Join(rows, "\n")
}
