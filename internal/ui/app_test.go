package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/callwatch/internal/config"
	"github.com/voicedesk/callwatch/internal/credentials"
	"github.com/voicedesk/callwatch/internal/mockapi"
	"github.com/voicedesk/callwatch/internal/prefs"
	"github.com/voicedesk/callwatch/internal/session"
	"github.com/voicedesk/callwatch/internal/state"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

type harness struct {
	backend   *mockapi.Server
	creds     *credentials.Store
	session   *session.Manager
	prefsPath string
	opts      Options
}

// newHarness wires a model against the mock backend. Poll intervals are
// zero so resources fetch once and never tick.
func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := mockapi.New()
	ts := httptest.NewServer(backend)
	t.Cleanup(ts.Close)

	creds := &credentials.Store{}
	client, err := voiceapi.NewClient(ts.URL, creds)
	require.NoError(t, err)

	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	sess := session.NewManager(creds, client, prefsPath, nil)

	cfg := config.Default()
	cfg.APIURL = ts.URL
	cfg.LogFile = ""
	cfg.Poll = config.PollIntervals{}

	return &harness{
		backend:   backend,
		creds:     creds,
		session:   sess,
		prefsPath: prefsPath,
		opts: Options{
			Client:    client,
			Session:   sess,
			Config:    cfg,
			PrefsPath: prefsPath,
		},
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	require.NoError(t, h.session.Login(context.Background(), mockapi.DefaultUsername, mockapi.DefaultPassword, false))
}

func (h *harness) model(t *testing.T) Model {
	t.Helper()
	m := New(h.opts)
	t.Cleanup(m.Close)
	return update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func wait[T any](t *testing.T, res *state.Resource[T]) state.Outcome[T] {
	t.Helper()
	require.NotNil(t, res)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := res.Wait(ctx)
	require.NoError(t, err)
	return out
}

func TestView_LoadingUntilSized(t *testing.T) {
	h := newHarness(t)
	m := New(h.opts)
	defer m.Close()
	assert.Equal(t, "Loading...", m.View())
}

func TestDashboard_RendersEveryPanel(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	m := h.model(t)

	require.Equal(t, PageDashboard, m.page)
	assert.Equal(t, 4, m.active.Len())

	metrics := wait(t, m.dashboard.metrics)
	require.True(t, metrics.Succeeded())
	assert.Equal(t, 9, metrics.Value.Metrics.TotalCalls.Value)
	wait(t, m.dashboard.recent)
	wait(t, m.dashboard.status)
	wait(t, m.dashboard.trends)

	view := m.View()
	assert.Contains(t, view, "Total Calls")
	assert.Contains(t, view, "Recent Calls")
	assert.Contains(t, view, "Voice AI")
	assert.Contains(t, view, "Operational")
	assert.Contains(t, view, "admin")
}

func TestDashboard_ShowsBackendError(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.SetFault(http.StatusServiceUnavailable, "maintenance")
	m := h.model(t)

	out := wait(t, m.dashboard.metrics)
	require.True(t, out.Failed())
	assert.Equal(t, "maintenance", out.Message)
	assert.Contains(t, m.View(), "error: maintenance")
}

func TestDashboard_Unauthenticated(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	out := wait(t, m.dashboard.metrics)
	require.True(t, out.Failed())
	assert.Contains(t, m.View(), "not signed in")
}

func TestPageSwitch_ClosesPreviousResources(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	m := h.model(t)

	metrics := m.dashboard.metrics
	m = press(t, m, "2")
	assert.Equal(t, PageCalls, m.page)
	assert.True(t, metrics.Closed())
	assert.Equal(t, 1, m.active.Len())

	calls := m.calls.list
	m = press(t, m, "3")
	assert.Equal(t, PageLive, m.page)
	assert.True(t, calls.Closed())
	assert.Equal(t, 2, m.active.Len())

	m = press(t, m, "4")
	assert.Equal(t, PageSettings, m.page)
	assert.Equal(t, 2, m.active.Len())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageDashboard, m.page)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PageSettings, m.page)
}

func TestCalls_FilterAndDetail(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.opts.StartPage = PageCalls
	m := h.model(t)

	out := wait(t, m.calls.list)
	require.True(t, out.Succeeded())
	assert.Len(t, out.Value.Calls, 9)
	assert.Contains(t, m.View(), "9 total")

	m = press(t, m, "f")
	assert.Equal(t, "completed", m.calls.query.Status)
	assert.Equal(t, 1, m.active.Len())
	out = wait(t, m.calls.list)
	require.True(t, out.Succeeded())
	require.Len(t, out.Value.Calls, 5)
	for _, c := range out.Value.Calls {
		assert.Equal(t, "completed", c.Status)
	}

	m = press(t, m, "j")
	assert.Equal(t, 1, m.calls.selected)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.calls.showDetail)
	assert.Equal(t, out.Value.Calls[1].ID, m.calls.detailID)
	assert.Equal(t, 2, m.active.Len())

	detail := wait(t, m.calls.detail)
	require.True(t, detail.Succeeded())
	m = update(t, m, resourceMsg{page: PageCalls})
	assert.Contains(t, m.View(), "Transcript (")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.calls.showDetail)
	assert.Equal(t, 1, m.active.Len())
}

func TestCalls_FilterCyclesBackToAll(t *testing.T) {
	h := newHarness(t)
	h.opts.StartPage = PageCalls
	m := h.model(t)

	for range callFilters {
		m = press(t, m, "f")
	}
	assert.Equal(t, "", m.calls.query.Status)
	assert.Equal(t, 1, m.calls.query.Page)
}

func TestLive_RendersActiveCalls(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.opts.StartPage = PageLive
	m := h.model(t)

	stats := wait(t, m.live.stats)
	require.True(t, stats.Succeeded())
	assert.Equal(t, 2, stats.Value.LiveStats.ActiveCalls)

	active := wait(t, m.live.active)
	require.True(t, active.Succeeded())
	assert.Len(t, active.Value.Calls, 2)
	assert.Contains(t, m.View(), "Calls In Progress")
}

func TestRefresh_SetsFlash(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	m := h.model(t)

	m = press(t, m, "r")
	assert.Equal(t, "Refreshing Dashboard", m.flash)
	wait(t, m.dashboard.metrics)
	assert.Contains(t, m.View(), "Refreshing Dashboard")
}

func TestCycleTheme_SavesPreference(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)
	before := m.theme.Name

	m = press(t, m, "T")
	require.NotEqual(t, before, m.theme.Name)

	p, err := prefs.Load(h.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, m.theme.Name, p.Theme)
}

func TestHelp_AnyKeyCloses(t *testing.T) {
	h := newHarness(t)
	m := h.model(t)

	m = press(t, m, "?")
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(t, m, "x")
	assert.False(t, m.showHelp)
	assert.Equal(t, PageDashboard, m.page)
}

func TestSettings_LoginForm(t *testing.T) {
	h := newHarness(t)
	h.opts.StartPage = PageSettings
	m := h.model(t)
	require.False(t, h.session.Authenticated())

	m = press(t, m, "i")
	require.True(t, m.settings.form.active)
	// username is prefilled from the configuration
	assert.Equal(t, focusPassword, m.settings.form.focus)

	// page keys are typed into the form while it is active
	m = press(t, m, "password")
	assert.Equal(t, PageSettings, m.page)
	assert.Equal(t, "password", m.settings.form.password.Value())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.settings.form.busy)

	msg := cmd()
	result, ok := msg.(loginResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)

	m = update(t, m, result)
	assert.True(t, h.session.Authenticated())
	assert.False(t, m.settings.form.active)
	assert.Empty(t, m.settings.form.password.Value())
	assert.Equal(t, "Signed in as admin", m.flash)
}

func TestSettings_LoginFailureKeepsFormOpen(t *testing.T) {
	h := newHarness(t)
	h.opts.StartPage = PageSettings
	m := h.model(t)

	m = press(t, m, "i")
	m = press(t, m, "wrong")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.False(t, h.session.Authenticated())
	assert.True(t, m.settings.form.active)
	assert.False(t, m.settings.form.busy)
	assert.Equal(t, "Authentication required", m.settings.form.message)
	assert.Contains(t, m.View(), "Authentication required")
}

func TestSettings_FormEscapeAndRemember(t *testing.T) {
	h := newHarness(t)
	h.opts.StartPage = PageSettings
	m := h.model(t)

	m = press(t, m, "i")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusRemember, m.settings.form.focus)
	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, m.settings.form.remember)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.settings.form.active)

	// keys act on the page again
	m = press(t, m, "1")
	assert.Equal(t, PageDashboard, m.page)
}

func TestSettings_Logout(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.opts.StartPage = PageSettings
	m := h.model(t)

	health := wait(t, m.settings.health)
	require.True(t, health.Succeeded())
	assert.Contains(t, m.View(), h.opts.Config.APIURL)

	m = press(t, m, "L")
	assert.False(t, h.session.Authenticated())
	assert.Equal(t, "Signed out admin", m.flash)
	assert.True(t, h.creds.Get().IsZero())
}

func TestOutcomeLine(t *testing.T) {
	styles := GetTheme("").Styles()

	tests := []struct {
		name string
		out  state.Outcome[int]
		want string
	}{
		{"idle", state.Outcome[int]{Phase: state.Idle}, "waiting"},
		{"loading", state.Outcome[int]{Phase: state.Pending}, "loading..."},
		{"failed", state.Outcome[int]{Phase: state.Failed, Message: "boom", ConsecutiveFailures: 1}, "error: boom"},
		{"offline", state.Outcome[int]{Phase: state.Failed, Message: "boom", ConsecutiveFailures: 2}, "offline: boom"},
		{"updated", state.Outcome[int]{Phase: state.Succeeded, HasValue: true, UpdatedAt: time.Now()}, "updated now"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, outcomeLine(styles, tt.out), tt.want)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 05s"},
		{2*time.Hour + 7*time.Minute, "2h 07m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "In Progress", titleCase("in-progress"))
	assert.Equal(t, "Voice Ai", titleCase("voice_ai"))
	assert.Equal(t, "", titleCase("  "))
}
