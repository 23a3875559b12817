package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show the call detail beside
	// the call list.
	LayoutWideWidth = 140
)

// Fetch sizes.
const (
	// RecentCallsLimit matches the dashboard's recent calls panel.
	RecentCallsLimit = 5

	// CallsPerPage is the page size of the call log.
	CallsPerPage = 20

	// LiveCallsLimit caps the in-progress calls fetched by the live monitor.
	LiveCallsLimit = 50

	// TrendDays is the window of the dashboard trend chart.
	TrendDays = 7

	// LogTailLines is the number of log lines kept for the settings page.
	LogTailLines = 200
)

// Timing constants.
const (
	// LogTailInterval is how often the local log file is re-read.
	LogTailInterval = 2 * time.Second

	// DefaultUIInterval re-renders relative timestamps.
	DefaultUIInterval = time.Second
)
