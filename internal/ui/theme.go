package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string

	Background string // outermost background
	Surface    string // header and command bar

	SelectionBg   string // selected row background
	SelectionText string // selected row text

	Border      string // cards
	BorderFocus string // active form

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors are badge colors keyed by call, appointment and
	// subsystem status.
	StatusColors map[string]string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Footer   lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),

		Footer: fg(t.Muted).
			Background(lipgloss.Color(t.Surface)).
			Padding(0, 1),
		Logo: fg(t.Warning).Bold(true),
		Selected: fg(t.SelectionText).
			Background(lipgloss.Color(t.SelectionBg)),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns a badge style for the given status. Unknown statuses
// use the muted color.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color := s.statusColors[strings.ToLower(strings.TrimSpace(status))]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// statusPalette maps every status the backend reports onto a handful of
// semantic colors.
type statusPalette struct {
	good, done, booked, live, planned, bad, warn, idle string
}

func (p statusPalette) colors() map[string]string {
	return map[string]string{
		"completed":   p.done,
		"answered":    p.good,
		"confirmed":   p.good,
		"operational": p.good,
		"booked":      p.booked,
		"in-progress": p.live,
		"scheduled":   p.planned,
		"failed":      p.bad,
		"missed":      p.bad,
		"offline":     p.bad,
		"degraded":    p.warn,
		"cancelled":   p.idle,
	}
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns a theme by name, Nightfox when the name is unknown.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["Nightfox"]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

func nightfoxTheme() Theme {
	// https://github.com/EdenEast/nightfox.nvim
	const (
		green   = "#81b29a"
		blue    = "#719cd6"
		cyan    = "#63cdcf"
		magenta = "#9d79d6"
		red     = "#c94f6d"
		yellow  = "#dbc074"
		comment = "#738091"
	)
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24",
		Surface:       "#192330",
		SelectionBg:   "#2b3b51",
		SelectionText: "#cdcecf",
		Border:        "#39506d",
		BorderFocus:   blue,
		Text:          "#cdcecf",
		Muted:         comment,
		Faint:         "#71839b",
		Accent:        blue,
		Success:       green,
		Warning:       yellow,
		Danger:        red,
		Info:          cyan,
		StatusColors: statusPalette{
			good: green, done: green, booked: magenta, live: cyan,
			planned: blue, bad: red, warn: yellow, idle: comment,
		}.colors(),
	}
}

func kanagawaTheme() Theme {
	// https://github.com/rebelot/kanagawa.nvim
	const (
		springGreen = "#98BB6C"
		crystalBlue = "#7E9CD8"
		springBlue  = "#7FB4CA"
		oniViolet   = "#957FB8"
		waveRed     = "#E46876"
		carpYellow  = "#E6C384"
		fujiGray    = "#727169"
	)
	return Theme{
		Name:          "Kanagawa",
		Background:    "#16161D",
		Surface:       "#1F1F28",
		SelectionBg:   "#2D4F67",
		SelectionText: "#DCD7BA",
		Border:        "#54546D",
		BorderFocus:   crystalBlue,
		Text:          "#DCD7BA",
		Muted:         "#C8C093",
		Faint:         fujiGray,
		Accent:        crystalBlue,
		Success:       springGreen,
		Warning:       carpYellow,
		Danger:        waveRed,
		Info:          springBlue,
		StatusColors: statusPalette{
			good: springGreen, done: springGreen, booked: oniViolet, live: springBlue,
			planned: crystalBlue, bad: waveRed, warn: carpYellow, idle: fujiGray,
		}.colors(),
	}
}

func slateTheme() Theme {
	// Tailwind slate and sky scales
	return Theme{
		Name:          "Slate",
		Background:    "#020617",
		Surface:       "#0f172a",
		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",
		Border:        "#334155",
		BorderFocus:   "#38bdf8",
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Faint:         "#64748b",
		Accent:        "#38bdf8",
		Success:       "#22c55e",
		Warning:       "#f59e0b",
		Danger:        "#ef4444",
		Info:          "#06b6d4",
		StatusColors: statusPalette{
			good: "#22c55e", done: "#16a34a", booked: "#0284c7", live: "#06b6d4",
			planned: "#38bdf8", bad: "#dc2626", warn: "#f59e0b", idle: "#64748b",
		}.colors(),
	}
}
