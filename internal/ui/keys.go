package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Refresh    key.Binding

	// Page switching
	ViewDashboard key.Binding
	ViewCalls     key.Binding
	ViewLive      key.Binding
	ViewSettings  key.Binding

	// Calls actions
	CycleFilter key.Binding
	NextResults key.Binding
	PrevResults key.Binding
	Open        key.Binding

	// Settings actions
	Login          key.Binding
	Logout         key.Binding
	ToggleRemember key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next page"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous page"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close detail"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),

		// Page switching
		ViewDashboard: key.NewBinding(
			key.WithKeys("1", "d"),
			key.WithHelp("1/d", "Dashboard"),
		),
		ViewCalls: key.NewBinding(
			key.WithKeys("2", "c"),
			key.WithHelp("2/c", "Calls"),
		),
		ViewLive: key.NewBinding(
			key.WithKeys("3", "l"),
			key.WithHelp("3/l", "Live monitor"),
		),
		ViewSettings: key.NewBinding(
			key.WithKeys("4", "s"),
			key.WithHelp("4/s", "Settings"),
		),

		// Calls actions
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle status filter"),
		),
		NextResults: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "Next page of calls"),
		),
		PrevResults: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "Previous page of calls"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open call detail"),
		),

		// Settings actions
		Login: key.NewBinding(
			key.WithKeys("i", "enter"),
			key.WithHelp("i", "Sign in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Sign out"),
		),
		ToggleRemember: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle remember me"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Scroll detail up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Scroll detail down"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Pages
		{k.Tab, k.ViewDashboard, k.ViewCalls, k.ViewLive, k.ViewSettings},
		{k.Up, k.Down, k.Top, k.Bottom},
		// Calls
		{k.CycleFilter, k.PrevResults, k.NextResults, k.Open, k.Escape, k.HalfPageDown, k.HalfPageUp},
		// Settings
		{k.Login, k.Logout, k.ToggleRemember},
		// General
		{k.Refresh, k.CycleTheme, k.Help, k.Quit},
	}
}
