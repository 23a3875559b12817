package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/voicedesk/callwatch/internal/state"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// callFilters are the status filters of the call log, "" meaning all.
var callFilters = []string{"", "completed", "in-progress", "failed"}

type callsPage struct {
	query    voiceapi.CallQuery
	filter   int
	selected int

	list     *state.Resource[*voiceapi.CallPage]
	detail   *state.Resource[*voiceapi.CallDetail]
	detailID int64

	viewport   viewport.Model
	showDetail bool
}

func newCallsPage() *callsPage {
	return &callsPage{
		query:    voiceapi.CallQuery{Page: 1, PerPage: CallsPerPage},
		viewport: viewport.New(0, 0),
	}
}

func (c *callsPage) subscribe(m *Model) {
	// The detail pane does not survive leaving the page.
	c.showDetail = false
	c.detail = nil
	c.detailID = 0
	c.resubscribe(m)
}

// resubscribe replaces the list resource with one for the current query.
func (c *callsPage) resubscribe(m *Model) {
	q := c.query
	c.list = watch(m, PageCalls, "calls", func(ctx context.Context) (*voiceapi.CallPage, error) {
		return m.client.Calls(ctx, q)
	})
	m.subscribe("calls", c.list, m.cfg.Poll.Calls)
}

func (c *callsPage) rows() []voiceapi.CallSummary {
	if c.list == nil {
		return nil
	}
	out := c.list.Outcome()
	if !out.HasValue || out.Value == nil {
		return nil
	}
	return out.Value.Calls
}

func (c *callsPage) pages() int {
	if c.list == nil {
		return 0
	}
	out := c.list.Outcome()
	if !out.HasValue || out.Value == nil {
		return 0
	}
	return out.Value.Pages
}

func (c *callsPage) clampSelection() {
	n := len(c.rows())
	if c.selected >= n {
		c.selected = n - 1
	}
	if c.selected < 0 {
		c.selected = 0
	}
}

func (c *callsPage) resize(width, height int) {
	w := width
	if width >= LayoutWideWidth {
		w = width / 2
	}
	c.viewport.Width = max(w-2, 10)
	// title and status rows of the detail section
	c.viewport.Height = max(height-4, 3)
}

// syncDetail re-renders the detail pane content after the detail resource
// changed.
func (c *callsPage) syncDetail(styles Styles) {
	if !c.showDetail || c.detail == nil {
		return
	}
	out := c.detail.Outcome()
	if !out.HasValue || out.Value == nil {
		c.viewport.SetContent("")
		return
	}
	c.viewport.SetContent(renderCallDetail(styles, out.Value, c.viewport.Width))
}

func (m *Model) openCallDetail(id int64) {
	c := m.calls
	c.detailID = id
	c.detail = watch(m, PageCalls, "call_detail", func(ctx context.Context) (*voiceapi.CallDetail, error) {
		return m.client.CallDetail(ctx, id)
	})
	// Call detail is fetched once per open; r refreshes it on demand.
	m.subscribe("call_detail", c.detail, 0)
	c.showDetail = true
	c.viewport.GotoTop()
	c.syncDetail(m.theme.Styles())
}

func (m *Model) closeCallDetail() {
	c := m.calls
	m.active.Remove("call_detail")
	c.detail = nil
	c.detailID = 0
	c.showDetail = false
	c.viewport.SetContent("")
}

func (m Model) handleCallsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.calls

	if c.showDetail {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.closeCallDetail()
		case key.Matches(msg, m.keys.Top):
			c.viewport.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			c.viewport.GotoBottom()
		case key.Matches(msg, m.keys.Up, m.keys.Down, m.keys.HalfPageUp, m.keys.HalfPageDown):
			var cmd tea.Cmd
			c.viewport, cmd = c.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		c.selected--
		c.clampSelection()
	case key.Matches(msg, m.keys.Down):
		c.selected++
		c.clampSelection()
	case key.Matches(msg, m.keys.Top):
		c.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		c.selected = len(c.rows()) - 1
		c.clampSelection()
	case key.Matches(msg, m.keys.CycleFilter):
		c.filter = (c.filter + 1) % len(callFilters)
		c.query.Status = callFilters[c.filter]
		c.query.Page = 1
		c.selected = 0
		c.resubscribe(&m)
		m.flash = "Filter: " + filterLabel(c.query.Status)
	case key.Matches(msg, m.keys.NextResults):
		if c.query.Page < c.pages() {
			c.query.Page++
			c.selected = 0
			c.resubscribe(&m)
		}
	case key.Matches(msg, m.keys.PrevResults):
		if c.query.Page > 1 {
			c.query.Page--
			c.selected = 0
			c.resubscribe(&m)
		}
	case key.Matches(msg, m.keys.Open):
		rows := c.rows()
		if c.selected >= 0 && c.selected < len(rows) {
			m.openCallDetail(rows[c.selected].ID)
		}
	}
	return m, nil
}

func filterLabel(status string) string {
	if status == "" {
		return "All"
	}
	return titleCase(status)
}

func (m Model) renderCalls() string {
	styles := m.theme.Styles()
	c := m.calls
	if c.list == nil {
		return ""
	}

	out := c.list.Outcome()
	title := fmt.Sprintf("Calls · %s", filterLabel(c.query.Status))
	if out.HasValue && out.Value != nil {
		title += fmt.Sprintf(" · page %d of %d · %s total", c.query.Page, max(out.Value.Pages, 1), humanize.Comma(int64(out.Value.Total)))
	}
	list := section(styles, title, outcomeLine(styles, out), m.renderCallTable(styles))

	if !c.showDetail {
		return "\n" + list
	}

	detail := m.renderDetailPane(styles)
	if m.width >= LayoutWideWidth {
		col := lipgloss.NewStyle().Width(m.width / 2)
		return "\n" + lipgloss.JoinHorizontal(lipgloss.Top, col.Render(list), col.Render(detail))
	}
	return "\n" + detail
}

func (m Model) renderCallTable(styles Styles) string {
	c := m.calls
	rows := c.rows()
	if rows == nil {
		return ""
	}
	if len(rows) == 0 {
		return styles.FaintText.Render("No calls match this filter")
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Render("  " + cell("#", 6) + cell("From", 20) + cell("Started", 18) + cell("Duration", 10) + cell("Type", 12) + "Status"))
	for i, call := range rows {
		b.WriteString("\n")
		line := cell(fmt.Sprint(call.ID), 6) +
			cell(call.FromNumber, 20) +
			cell(relative(call.ParsedStartTime(), call.StartTime), 18) +
			cell(formatDuration(call.DurationValue()), 10) +
			cell(titleCase(call.CallType), 12)
		if i == c.selected {
			b.WriteString(styles.Selected.Render("> " + line))
		} else {
			b.WriteString(styles.Text.Render("  " + line))
		}
		b.WriteString(badge(styles, call.Status))
	}
	return b.String()
}

func (m Model) renderDetailPane(styles Styles) string {
	c := m.calls
	title := fmt.Sprintf("Call %d", c.detailID)
	status := ""
	if c.detail != nil {
		status = outcomeLine(styles, c.detail.Outcome())
	}
	return section(styles, title, status, c.viewport.View())
}

func renderCallDetail(styles Styles, d *voiceapi.CallDetail, width int) string {
	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.MutedText.Render(padRight(label, 12)))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}

	b.WriteString(badge(styles, d.Status))
	b.WriteString("\n")
	field("From", d.FromNumber)
	field("To", d.ToNumber)
	field("Type", titleCase(d.CallType))
	field("Started", relative(d.ParsedStartTime(), d.StartTime))
	field("Duration", formatDuration(d.DurationValue()))
	field("Call SID", d.CallSID)

	wrap := lipgloss.NewStyle().Width(max(width, 20))
	if d.Summary != "" {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render("Summary"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(styles.Text.Render(d.Summary)))
		b.WriteString("\n")
	}

	if len(d.Transcripts) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render(fmt.Sprintf("Transcript (%d)", len(d.Transcripts))))
		b.WriteString("\n")
		for _, t := range d.Transcripts {
			speaker := ternaryStyle(strings.EqualFold(t.Speaker, "ai"), styles.InfoText, styles.WarningText).
				Render(padRight(titleCase(t.Speaker), 8))
			b.WriteString(wrap.Render(speaker + styles.Text.Render(t.Text)))
			b.WriteString("\n")
		}
	}

	if len(d.Interactions) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render(fmt.Sprintf("Interactions (%d)", len(d.Interactions))))
		b.WriteString("\n")
		for _, in := range d.Interactions {
			head := fmt.Sprintf("%s %s", titleCase(in.Intent), styles.FaintText.Render(fmt.Sprintf("%.0f%%", in.Confidence*100)))
			if in.ActionTaken != "" {
				head += " " + styles.SuccessText.Render("→ "+titleCase(in.ActionTaken))
			}
			b.WriteString(styles.Text.Render(head))
			b.WriteString("\n")
			b.WriteString(wrap.Render(styles.MutedText.Render("  caller: ") + styles.Text.Render(in.UserInput)))
			b.WriteString("\n")
			b.WriteString(wrap.Render(styles.MutedText.Render("  agent:  ") + styles.Text.Render(in.AIResponse)))
			b.WriteString("\n")
		}
	}

	if len(d.Appointments) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Render("Appointments"))
		b.WriteString("\n")
		for _, a := range d.Appointments {
			b.WriteString(styles.Text.Render(fmt.Sprintf("%s  %s ", a.Title, relative(a.ParsedStartTime(), a.StartTime))))
			b.WriteString(badge(styles, a.Status))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// relative renders t relative to now, falling back to the raw value when it
// could not be parsed.
func relative(t time.Time, raw string) string {
	if t.IsZero() {
		return raw
	}
	return humanize.Time(t)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
}
