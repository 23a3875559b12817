package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// bar renders segments onto a solid background. lipgloss resets the
// background after every styled segment, so spaces between words and the
// padding between segments are painted explicitly.
type bar struct {
	bg    lipgloss.Color
	fill  lipgloss.Style
	space string
}

func newBar(bgColor string) bar {
	fill := lipgloss.NewStyle().Background(lipgloss.Color(bgColor))
	return bar{bg: lipgloss.Color(bgColor), fill: fill, space: fill.Render(" ")}
}

// text renders s in style, keeping the background under embedded spaces.
func (b bar) text(s string, style lipgloss.Style) string {
	if s == "" {
		return ""
	}
	style = style.Background(b.bg)
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// pad returns n background-colored spaces.
func (b bar) pad(n int) string {
	if n <= 0 {
		return ""
	}
	return b.fill.Render(strings.Repeat(" ", n))
}

// spread places left and right at the edges of a line of the given width.
func (b bar) spread(left, right string, width int) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + b.pad(gap) + right
}
