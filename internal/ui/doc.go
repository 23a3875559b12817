// Package ui provides the terminal dashboard for callwatch.
//
// The UI is a Bubble Tea program styled with lipgloss. It is a view over
// state.Resource values: each page builds the resources it shows, subscribes
// them to a poll.Group when it becomes visible and closes the group when the
// user leaves. Nothing outside the visible page polls the backend.
//
// # Pages
//
//   - Dashboard: today's counters, recent calls, subsystem status and the
//     seven day trend. Every panel is its own resource and fails on its own.
//   - Calls: the paginated call log with a status filter and a scrollable
//     call detail (transcript, AI interactions, booked appointments).
//   - Live: short-window counters and the calls in progress, polled at the
//     live cadence.
//   - Settings: backend health, sign in and sign out, preferences and the
//     tail of the callwatch log file.
//
// # Event Flow
//
//  1. Run creates the Model, which subscribes the start page.
//  2. Resource changes are forwarded to the program as resourceMsg values.
//  3. A one second tick re-renders relative timestamps.
//  4. Page switches close the previous group before subscribing the next.
//  5. Quitting, or cancelling the context, closes the visible group.
//
// # Key Bindings
//
//   - 1-4 or d/c/l/s: switch page, Tab and Shift+Tab cycle
//   - r: refresh every resource of the page now
//   - j/k, g/G: move in the call list or scroll the call detail
//   - f, [ and ]: status filter and call pages
//   - Enter/Esc: open and close the call detail
//   - i, L: sign in and sign out on the Settings page
//   - T: cycle theme, h or ?: help, e or Ctrl+C: quit
package ui
