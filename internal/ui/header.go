package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/dustin/go-humanize"

	"github.com/voicedesk/callwatch/internal/state"
)

// renderHeader renders the logo, page tabs and session status on one line.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := newBar(m.theme.Surface)

	var left strings.Builder
	left.WriteString(bg.text("callwatch", styles.Logo))
	left.WriteString(bg.pad(2))
	for _, p := range pageOrder {
		label := fmt.Sprintf(" %d %s ", int(p)+1, p)
		if p == m.page {
			left.WriteString(styles.Selected.Render(label))
		} else {
			left.WriteString(bg.text(label, styles.MutedText))
		}
	}

	return bg.spread(left.String(), m.sessionLabel(styles, bg), m.width)
}

func (m Model) sessionLabel(styles Styles, bg bar) string {
	if m.session == nil {
		return ""
	}
	if m.session.Authenticated() {
		return bg.text("● "+m.session.Username(), styles.SuccessText) + bg.pad(1)
	}
	return bg.text("○ not signed in", styles.WarningText) + bg.pad(1)
}

// renderCommandBar renders key hints for the current page, or the last
// transient message.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	if m.flash != "" {
		return styles.Footer.Width(m.width).Render(m.flash)
	}

	bindings := []key.Binding{m.keys.Tab, m.keys.Refresh}
	switch m.page {
	case PageCalls:
		if m.calls.showDetail {
			bindings = append(bindings, m.keys.Escape, m.keys.HalfPageDown)
		} else {
			bindings = append(bindings, m.keys.Up, m.keys.Open, m.keys.CycleFilter, m.keys.NextResults, m.keys.PrevResults)
		}
	case PageSettings:
		bindings = append(bindings, m.keys.Login, m.keys.Logout)
	}
	bindings = append(bindings, m.keys.CycleTheme, m.keys.Help, m.keys.Quit)

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("<%s> %s", h.Key, h.Desc))
	}
	return styles.Footer.Width(m.width).Render(truncate(strings.Join(hints, "  "), max(m.width-2, 10)))
}

// outcomeLine summarizes a resource: loading, the failure message, or when
// it last refreshed.
func outcomeLine[T any](styles Styles, out state.Outcome[T]) string {
	switch {
	case out.Phase == state.Idle:
		return styles.FaintText.Render("waiting")
	case out.Failed() && out.IsOffline():
		return styles.DangerText.Render("offline: ") + styles.Text.Render(out.Message)
	case out.Failed():
		return styles.DangerText.Render("error: ") + styles.Text.Render(out.Message)
	case out.Pending() && !out.HasValue:
		return styles.MutedText.Render("loading...")
	case out.Pending():
		return styles.MutedText.Render("refreshing... ") + styles.FaintText.Render(updatedAgo(out.UpdatedAt))
	default:
		return styles.FaintText.Render(updatedAgo(out.UpdatedAt))
	}
}

func updatedAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return "updated " + humanize.Time(t)
}

// section renders a titled block with the resource status on the title row.
func section(styles Styles, title, status, body string) string {
	head := styles.AccentText.Bold(true).Render(title)
	if status != "" {
		head += "  " + status
	}
	if body == "" {
		return head + "\n"
	}
	return head + "\n" + body + "\n"
}

func badge(styles Styles, status string) string {
	return styles.StatusStyle(status).Render(titleCase(status))
}
