package ui

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/config"
	"github.com/voicedesk/callwatch/internal/poll"
	"github.com/voicedesk/callwatch/internal/prefs"
	"github.com/voicedesk/callwatch/internal/session"
	"github.com/voicedesk/callwatch/internal/state"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// Page is a top-level screen.
type Page int

const (
	PageDashboard Page = iota
	PageCalls
	PageLive
	PageSettings
)

var pageOrder = []Page{PageDashboard, PageCalls, PageLive, PageSettings}

func (p Page) String() string {
	switch p {
	case PageCalls:
		return "Calls"
	case PageLive:
		return "Live"
	case PageSettings:
		return "Settings"
	default:
		return "Dashboard"
	}
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    voiceapi.Fetcher
	Session   *session.Manager
	Scheduler *poll.Scheduler
	Config    config.Config
	Logger    *zap.Logger
	ThemeName string
	PrefsPath string
	// StartPage is shown first; Settings is a good choice when no session
	// could be restored.
	StartPage Page
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    voiceapi.Fetcher
	session   *session.Manager
	sched     *poll.Scheduler
	cfg       config.Config
	logger    *zap.Logger
	prefsPath string
	notifier  *notifier

	// UI state
	keys     keyMap
	theme    Theme
	page     Page
	width    int
	height   int
	ready    bool
	showHelp bool
	flash    string

	// Subscriptions of the visible page
	active *poll.Group

	dashboard *dashboardPage
	calls     *callsPage
	live      *livePage
	settings  *settingsPage
}

// New creates a new Bubble Tea model and subscribes the start page.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = poll.NewScheduler(poll.WithLogger(logger))
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		client:    opts.Client,
		session:   opts.Session,
		sched:     sched,
		cfg:       opts.Config,
		logger:    logger,
		prefsPath: prefsPath,
		notifier:  &notifier{},
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		dashboard: &dashboardPage{},
		calls:     newCallsPage(),
		live:      &livePage{},
		settings:  newSettingsPage(opts.Config.Username),
	}
	m.enterPage(opts.StartPage)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd(DefaultUIInterval))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.calls.resize(m.width, m.contentHeight())
		return m, nil

	case tickMsg:
		return m, tickCmd(DefaultUIInterval)

	case resourceMsg:
		if msg.page == PageCalls {
			m.calls.syncDetail(m.theme.Styles())
		}
		return m, nil

	case loginResultMsg:
		return m.handleLoginResult(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// Close releases the subscriptions of the visible page.
func (m Model) Close() {
	if m.active != nil {
		m.active.Close()
	}
}

func (m Model) renderContent() string {
	switch m.page {
	case PageCalls:
		return m.renderCalls()
	case PageLive:
		return m.renderLive()
	case PageSettings:
		return m.renderSettings()
	default:
		return m.renderDashboard()
	}
}

// enterPage tears down the subscriptions of the current page and subscribes
// the resources of p.
func (m *Model) enterPage(p Page) {
	if m.active != nil {
		m.active.Close()
	}
	m.page = p
	m.flash = ""
	m.active = poll.NewGroup(m.sched)

	switch p {
	case PageCalls:
		m.calls.subscribe(m)
	case PageLive:
		m.live.subscribe(m)
	case PageSettings:
		m.settings.subscribe(m)
	default:
		m.dashboard.subscribe(m)
	}
}

func (m *Model) cyclePage(step int) {
	idx := 0
	for i, p := range pageOrder {
		if p == m.page {
			idx = i
		}
	}
	n := len(pageOrder)
	m.enterPage(pageOrder[((idx+step)%n+n)%n])
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// The login form owns the keyboard while it is active.
	if m.page == PageSettings && m.settings.form.active {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name := m.theme.Name
		if err := prefs.Update(m.prefsPath, func(p *prefs.Prefs) { p.Theme = name }); err != nil {
			m.logger.Warn("ui.save_theme_failed", zap.Error(err))
		}
		m.calls.syncDetail(m.theme.Styles())
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.active.Refresh()
		m.flash = "Refreshing " + m.page.String()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.cyclePage(1)
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.cyclePage(-1)
		return m, nil
	case key.Matches(msg, m.keys.ViewDashboard):
		m.enterPage(PageDashboard)
		return m, nil
	case key.Matches(msg, m.keys.ViewCalls):
		m.enterPage(PageCalls)
		return m, nil
	case key.Matches(msg, m.keys.ViewLive):
		m.enterPage(PageLive)
		return m, nil
	case key.Matches(msg, m.keys.ViewSettings):
		m.enterPage(PageSettings)
		return m, nil
	}

	// Page-specific keys
	switch m.page {
	case PageCalls:
		return m.handleCallsKey(msg)
	case PageSettings:
		return m.handleSettingsKey(msg)
	}
	return m, nil
}

func (m Model) contentHeight() int {
	// header + command bar
	return max(m.height-2, 1)
}

// notifier forwards resource changes to the running program. Sends happen
// on their own goroutine: a notification can fire on a polling goroutine
// that the event loop is waiting for in Unsubscribe.
type notifier struct {
	mu      sync.RWMutex
	program *tea.Program
}

func (n *notifier) attach(p *tea.Program) {
	n.mu.Lock()
	n.program = p
	n.mu.Unlock()
}

func (n *notifier) forPage(page Page) func() {
	return func() {
		n.mu.RLock()
		p := n.program
		n.mu.RUnlock()
		if p != nil {
			go p.Send(resourceMsg{page: page})
		}
	}
}

// watch builds a resource that fetches immediately and reports changes for
// page.
func watch[T any](m *Model, page Page, name string, fetch state.Producer[T]) *state.Resource[T] {
	return state.NewResource(fetch, true,
		state.WithName(name),
		state.WithLogger(m.logger),
		state.WithContext(m.ctx),
		state.WithTimeout(m.cfg.RequestTimeout),
		state.WithNotify(m.notifier.forPage(page)),
	)
}

// subscribe adds res to the visible page's group. A zero interval keeps
// the resource but schedules no refresh.
func (m *Model) subscribe(key string, res poll.Resource, interval time.Duration) {
	m.active.Add(key, res, interval, interval > 0)
}

// Messages

type tickMsg time.Time

type resourceMsg struct {
	page Page
}

type loginResultMsg struct {
	username string
	err      error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	m.notifier.attach(p)
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	return err
}
