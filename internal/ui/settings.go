package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/logtail"
	"github.com/voicedesk/callwatch/internal/state"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// Focus positions of the login form.
const (
	focusUsername = iota
	focusPassword
	focusRemember
	focusCount
)

type loginForm struct {
	username textinput.Model
	password textinput.Model
	remember bool
	focus    int
	active   bool
	busy     bool
	message  string
}

type settingsPage struct {
	form   loginForm
	health *state.Resource[*voiceapi.Health]
	logs   *state.Resource[[]logtail.Entry]
}

func newSettingsPage(username string) *settingsPage {
	user := textinput.New()
	user.Prompt = ""
	user.Placeholder = "username"
	user.CharLimit = 128
	user.SetValue(username)

	pass := textinput.New()
	pass.Prompt = ""
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return &settingsPage{form: loginForm{username: user, password: pass}}
}

func (s *settingsPage) subscribe(m *Model) {
	s.health = watch(m, PageSettings, "health", m.client.Health)
	logFile := m.cfg.LogFile
	s.logs = watch(m, PageSettings, "log_tail", func(context.Context) ([]logtail.Entry, error) {
		if logFile == "" {
			return nil, nil
		}
		return logtail.Tail(logFile, LogTailLines)
	})
	m.subscribe("health", s.health, m.cfg.Poll.SystemStatus)
	m.subscribe("log_tail", s.logs, LogTailInterval)
}

func (f *loginForm) setFocus(i int) tea.Cmd {
	f.focus = (i%focusCount + focusCount) % focusCount
	f.username.Blur()
	f.password.Blur()
	switch f.focus {
	case focusUsername:
		return f.username.Focus()
	case focusPassword:
		return f.password.Focus()
	}
	return nil
}

func (f *loginForm) close() {
	f.active = false
	f.username.Blur()
	f.password.Blur()
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	f := &m.settings.form

	switch {
	case key.Matches(msg, m.keys.Login):
		f.active = true
		f.message = ""
		focus := focusUsername
		if strings.TrimSpace(f.username.Value()) != "" {
			focus = focusPassword
		}
		return m, tea.Batch(textinput.Blink, f.setFocus(focus))
	case key.Matches(msg, m.keys.Logout):
		if !m.session.Authenticated() {
			return m, nil
		}
		user := m.session.Username()
		if err := m.session.Logout(); err != nil {
			m.logger.Warn("ui.logout_failed", zap.Error(err))
		}
		m.flash = "Signed out " + user
		m.active.Refresh()
	}
	return m, nil
}

// handleFormKey routes keys to the login form. Printable keys go to the
// focused input, so only non-printable keys act as commands here.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.settings.form
	if msg.Type == tea.KeyCtrlC {
		m.Close()
		return m, tea.Quit
	}
	if f.busy {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		f.close()
		f.message = ""
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, f.setFocus(f.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, f.setFocus(f.focus - 1)
	case tea.KeyEnter:
		return m, m.submitLogin()
	}

	if f.focus == focusRemember {
		if key.Matches(msg, m.keys.ToggleRemember) {
			f.remember = !f.remember
		}
		return m, nil
	}

	var cmd tea.Cmd
	if f.focus == focusUsername {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return m, cmd
}

// submitLogin validates the form input against the backend off the event
// loop and reports back with a loginResultMsg.
func (m Model) submitLogin() tea.Cmd {
	f := &m.settings.form
	username := strings.TrimSpace(f.username.Value())
	if username == "" {
		f.message = "Username is required"
		return f.setFocus(focusUsername)
	}
	password := f.password.Value()
	remember := f.remember
	f.busy = true
	f.message = "Signing in..."

	ctx := m.ctx
	sess := m.session
	return func() tea.Msg {
		err := sess.Login(ctx, username, password, remember)
		return loginResultMsg{username: username, err: err}
	}
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	f := &m.settings.form
	f.busy = false
	if msg.err != nil {
		m.logger.Info("ui.login_failed", zap.String("username", msg.username), zap.Error(msg.err))
		f.message = voiceapi.Message(msg.err)
		f.password.SetValue("")
		return m, f.setFocus(focusPassword)
	}

	f.close()
	f.message = ""
	f.password.SetValue("")
	m.flash = "Signed in as " + msg.username
	m.active.Refresh()
	return m, nil
}

func (m Model) renderSettings() string {
	styles := m.theme.Styles()
	s := m.settings
	if s.health == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	health := s.health.Outcome()
	conn := []string{kv(styles, "API", m.cfg.APIURL)}
	if health.HasValue && health.Value != nil {
		conn = append(conn, kv(styles, "Backend", badge(styles, healthStatus(health.Value.Status))))
	}
	b.WriteString(section(styles, "Connection", outcomeLine(styles, health), strings.Join(conn, "\n")))
	b.WriteString("\n")

	b.WriteString(section(styles, "Session", "", m.renderSession(styles)))
	b.WriteString("\n")

	prefsBody := []string{
		kv(styles, "Theme", m.theme.Name),
		kv(styles, "Polling", fmt.Sprintf("metrics %s · recent %s · status %s · calls %s · live %s",
			m.cfg.Poll.Metrics, m.cfg.Poll.RecentCalls, m.cfg.Poll.SystemStatus, m.cfg.Poll.Calls, m.cfg.Poll.Live)),
		kv(styles, "Log file", ternary(m.cfg.LogFile == "", "disabled", m.cfg.LogFile)),
	}
	b.WriteString(section(styles, "Preferences", "", strings.Join(prefsBody, "\n")))
	b.WriteString("\n")

	logs := s.logs.Outcome()
	b.WriteString(section(styles, "Log", outcomeLine(styles, logs), m.renderLogTail(styles, logs)))
	return b.String()
}

func (m Model) renderSession(styles Styles) string {
	if m.session == nil {
		return styles.FaintText.Render("Sessions are not available")
	}
	f := m.settings.form

	var b strings.Builder
	if m.session.Authenticated() {
		b.WriteString(kv(styles, "Signed in", styles.SuccessText.Render(m.session.Username())))
	} else {
		b.WriteString(kv(styles, "Signed in", styles.WarningText.Render("no")))
	}

	if !f.active {
		if f.message != "" {
			b.WriteString("\n")
			b.WriteString(styles.DangerText.Render(f.message))
		}
		return b.String()
	}

	field := func(label string, focused bool, value string) string {
		marker := ternary(focused, "> ", "  ")
		style := ternaryStyle(focused, styles.AccentText, styles.MutedText)
		return style.Render(marker+padRight(label, 10)) + value
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(0, 1)

	lines := []string{
		field("Username", f.focus == focusUsername, f.username.View()),
		field("Password", f.focus == focusPassword, f.password.View()),
		field("Remember", f.focus == focusRemember, ternary(f.remember, "[x]", "[ ]")),
	}
	if f.message != "" {
		msgStyle := ternaryStyle(f.busy, styles.MutedText, styles.DangerText)
		lines = append(lines, "", msgStyle.Render(f.message))
	}
	b.WriteString("\n")
	b.WriteString(box.Render(strings.Join(lines, "\n")))
	return b.String()
}

func (m Model) renderLogTail(styles Styles, out state.Outcome[[]logtail.Entry]) string {
	if m.cfg.LogFile == "" {
		return styles.FaintText.Render("Logging to file is disabled")
	}
	if !out.HasValue {
		return ""
	}
	entries := out.Value
	if len(entries) == 0 {
		return styles.FaintText.Render("Log is empty")
	}

	// Fill whatever height is left below the other sections.
	room := max(m.contentHeight()-22, 5)
	if len(entries) > room {
		entries = entries[len(entries)-room:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, logLevelStyle(styles, e.Level).Render(truncate(e.Format(), max(m.width-2, 20))))
	}
	return strings.Join(lines, "\n")
}

func logLevelStyle(styles Styles, level string) lipgloss.Style {
	switch strings.ToLower(level) {
	case "error", "dpanic", "panic", "fatal":
		return styles.DangerText
	case "warn", "warning":
		return styles.WarningText
	case "debug":
		return styles.FaintText
	default:
		return styles.Text
	}
}

// healthStatus maps the backend health string onto a subsystem status.
func healthStatus(status string) string {
	if strings.EqualFold(status, "healthy") || strings.EqualFold(status, "ok") {
		return "operational"
	}
	return status
}

func kv(styles Styles, label, value string) string {
	return styles.MutedText.Render(padRight(label, 12)) + styles.Text.Render(value)
}
