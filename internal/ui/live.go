package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/voicedesk/callwatch/internal/state"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// livePage polls the short-window counters and the calls currently in
// progress at the live cadence.
type livePage struct {
	stats  *state.Resource[*voiceapi.LiveStats]
	active *state.Resource[*voiceapi.CallPage]
}

func (l *livePage) subscribe(m *Model) {
	l.stats = watch(m, PageLive, "live_stats", m.client.LiveStats)
	l.active = watch(m, PageLive, "active_calls", func(ctx context.Context) (*voiceapi.CallPage, error) {
		return m.client.Calls(ctx, voiceapi.CallQuery{Page: 1, PerPage: LiveCallsLimit, Status: "in-progress"})
	})
	m.subscribe("live_stats", l.stats, m.cfg.Poll.Live)
	m.subscribe("active_calls", l.active, m.cfg.Poll.Live)
}

func (m Model) renderLive() string {
	styles := m.theme.Styles()
	l := m.live
	if l.stats == nil {
		return ""
	}

	stats := l.stats.Outcome()
	active := l.active.Outcome()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(section(styles, "Live Monitor", outcomeLine(styles, stats), renderLiveCounters(styles, stats)))
	b.WriteString("\n")
	b.WriteString(section(styles, "Calls In Progress", outcomeLine(styles, active), renderActiveCalls(styles, active, time.Now())))
	return b.String()
}

func renderLiveCounters(styles Styles, out state.Outcome[*voiceapi.LiveStats]) string {
	if !out.HasValue || out.Value == nil || out.Value.LiveStats == nil {
		return ""
	}
	s := out.Value.LiveStats
	counter := func(label string, value int, style lipgloss.Style) string {
		return styles.MutedText.Render(label+" ") + style.Bold(true).Render(fmt.Sprint(value))
	}
	errStyle := ternaryStyle(s.TotalErrors > 0, styles.DangerText, styles.SuccessText)
	hookStyle := ternaryStyle(s.RecentWebhookFailures > 0, styles.WarningText, styles.SuccessText)
	return strings.Join([]string{
		counter("Active", s.ActiveCalls, styles.SuccessText),
		counter("Last hour", s.RecentCalls, styles.InfoText),
		counter("Booked today", s.TodayAppointments, styles.AccentText),
		counter("Webhook failures", s.RecentWebhookFailures, hookStyle),
		counter("Errors", s.TotalErrors, errStyle),
	}, "   ")
}

func renderActiveCalls(styles Styles, out state.Outcome[*voiceapi.CallPage], now time.Time) string {
	if !out.HasValue || out.Value == nil {
		return ""
	}
	if len(out.Value.Calls) == 0 {
		return styles.FaintText.Render("No calls in progress")
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Render(cell("#", 6) + cell("From", 20) + cell("To", 20) + cell("Elapsed", 10) + "Turns"))
	for _, c := range out.Value.Calls {
		elapsed := "-"
		if start := c.ParsedStartTime(); !start.IsZero() {
			elapsed = formatDuration(now.Sub(start))
		}
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(cell(fmt.Sprint(c.ID), 6) + cell(c.FromNumber, 20) + cell(c.ToNumber, 20)))
		b.WriteString(styles.SuccessText.Render(cell(elapsed, 10)))
		b.WriteString(styles.Text.Render(fmt.Sprint(c.InteractionCount)))
	}
	return b.String()
}
