package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/voicedesk/callwatch/internal/state"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// dashboardPage holds the independent resources of the dashboard. Each
// panel loads, fails and refreshes on its own.
type dashboardPage struct {
	metrics *state.Resource[*voiceapi.DashboardMetrics]
	recent  *state.Resource[*voiceapi.RecentCalls]
	status  *state.Resource[*voiceapi.SystemStatus]
	trends  *state.Resource[*voiceapi.CallTrends]
}

func (d *dashboardPage) subscribe(m *Model) {
	d.metrics = watch(m, PageDashboard, "metrics", m.client.DashboardMetrics)
	d.recent = watch(m, PageDashboard, "recent_calls", func(ctx context.Context) (*voiceapi.RecentCalls, error) {
		return m.client.RecentCalls(ctx, RecentCallsLimit)
	})
	d.status = watch(m, PageDashboard, "system_status", m.client.SystemStatus)
	d.trends = watch(m, PageDashboard, "call_trends", func(ctx context.Context) (*voiceapi.CallTrends, error) {
		return m.client.CallTrends(ctx, TrendDays)
	})

	m.subscribe("metrics", d.metrics, m.cfg.Poll.Metrics)
	m.subscribe("recent_calls", d.recent, m.cfg.Poll.RecentCalls)
	m.subscribe("system_status", d.status, m.cfg.Poll.SystemStatus)
	m.subscribe("call_trends", d.trends, m.cfg.Poll.Calls)
}

func (m Model) renderDashboard() string {
	styles := m.theme.Styles()
	d := m.dashboard
	if d.metrics == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	metrics := d.metrics.Outcome()
	b.WriteString(section(styles, "Today", outcomeLine(styles, metrics), m.renderMetricCards(styles, metrics)))
	b.WriteString("\n")

	recent := d.recent.Outcome()
	b.WriteString(section(styles, "Recent Calls", outcomeLine(styles, recent), m.renderRecentCalls(styles, recent)))
	b.WriteString("\n")

	status := d.status.Outcome()
	left := section(styles, "System Status", outcomeLine(styles, status), renderSubsystems(styles, status))
	trends := d.trends.Outcome()
	right := section(styles, fmt.Sprintf("Last %d Days", TrendDays), outcomeLine(styles, trends), renderTrends(styles, trends))

	if m.width >= LayoutCompactWidth {
		col := lipgloss.NewStyle().Width(m.width / 2)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, col.Render(left), col.Render(right)))
	} else {
		b.WriteString(left)
		b.WriteString("\n")
		b.WriteString(right)
	}
	return b.String()
}

func (m Model) renderMetricCards(styles Styles, out state.Outcome[*voiceapi.DashboardMetrics]) string {
	if !out.HasValue || out.Value == nil || out.Value.Metrics == nil {
		return ""
	}
	c := out.Value.Metrics
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Padding(0, 1).
		Width(24)

	render := func(title, value, change string, positive bool) string {
		body := styles.MutedText.Render(title) + "\n" + styles.Text.Bold(true).Render(value)
		if change != "" {
			style := ternaryStyle(positive, styles.SuccessText, styles.DangerText)
			body += "  " + style.Render(change)
		}
		return card.Render(body)
	}

	cards := []string{
		render("Total Calls", humanize.Comma(int64(c.TotalCalls.Value)), signedPercent(c.TotalCalls.Change), c.TotalCalls.Change >= 0),
		render("Appointments Booked", humanize.Comma(int64(c.AppointmentsBooked.Value)), signedPercent(c.AppointmentsBooked.Change), c.AppointmentsBooked.Change >= 0),
		// shorter calls are an improvement
		render("Avg. Call Duration", c.AvgCallDuration.Value, signedPercent(c.AvgCallDuration.Change), c.AvgCallDuration.Change <= 0),
		render("Live Calls", humanize.Comma(int64(c.LiveCalls.Value)), "", true),
	}

	var row string
	if m.width >= 4*26 {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	} else {
		row = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}

	p := out.Value.Performance
	perf := fmt.Sprintf("Answer rate %s   Booking rate %s   Miss rate %s",
		styles.SuccessText.Render(fmt.Sprintf("%.1f%%", p.AnswerRate)),
		styles.InfoText.Render(fmt.Sprintf("%.1f%%", p.BookingRate)),
		styles.DangerText.Render(fmt.Sprintf("%.1f%%", p.MissRate)))
	return row + "\n" + perf
}

func (m Model) renderRecentCalls(styles Styles, out state.Outcome[*voiceapi.RecentCalls]) string {
	if !out.HasValue || out.Value == nil {
		return ""
	}
	if len(out.Value.RecentCalls) == 0 {
		return styles.FaintText.Render("No calls yet")
	}

	var b strings.Builder
	b.WriteString(styles.MutedText.Render(cell("Caller", 22) + cell("When", 18) + cell("Duration", 10) + cell("Type", 14) + "Status"))
	for _, c := range out.Value.RecentCalls {
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(cell(c.Caller, 22) + cell(c.Time, 18) + cell(c.Duration, 10) + cell(c.Type, 14)))
		b.WriteString(badge(styles, c.Status))
	}
	return b.String()
}

func renderSubsystems(styles Styles, out state.Outcome[*voiceapi.SystemStatus]) string {
	if !out.HasValue || out.Value == nil || out.Value.SystemStatus == nil {
		return ""
	}
	s := out.Value.SystemStatus
	rows := []struct {
		name   string
		status voiceapi.SubsystemStatus
	}{
		{"Voice AI", s.VoiceAI},
		{"Call Recording", s.CallRecording},
		{"Calendar Sync", s.CalendarSync},
	}

	var lines []string
	for _, row := range rows {
		mark := ternaryStyle(row.status.Operational(), styles.SuccessText, styles.DangerText).
			Render(ternary(row.status.Operational(), "✓", "✗"))
		line := mark + " " + styles.Text.Render(cell(row.name, 16)) + badge(styles, row.status.Status)
		if msg := strings.TrimSpace(row.status.Message); msg != "" && !row.status.Operational() {
			line += " " + styles.MutedText.Render(msg)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderTrends(styles Styles, out state.Outcome[*voiceapi.CallTrends]) string {
	if !out.HasValue || out.Value == nil {
		return ""
	}
	points := out.Value.Trends
	if len(points) == 0 {
		return styles.FaintText.Render("No data")
	}
	peak := 1
	for _, p := range points {
		peak = max(peak, p.Calls)
	}
	const barWidth = 24

	lines := make([]string, 0, len(points))
	for _, p := range points {
		n := p.Calls * barWidth / peak
		bar := styles.AccentText.Render(strings.Repeat("█", n)) + styles.FaintText.Render(strings.Repeat("░", barWidth-n))
		label := p.Date
		if len(label) >= 10 {
			label = label[5:]
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			styles.MutedText.Render(label), bar,
			styles.Text.Render(fmt.Sprintf("%d calls, %d booked", p.Calls, p.Appointments))))
	}
	return strings.Join(lines, "\n")
}

func signedPercent(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.0f%%", v)
	}
	return fmt.Sprintf("%.0f%%", v)
}

func ternaryStyle(cond bool, a, b lipgloss.Style) lipgloss.Style {
	if cond {
		return a
	}
	return b
}
