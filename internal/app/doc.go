// Package app is the composition root of callwatch.
//
// Run wires the pieces together in order:
//
//  1. config.Load reads ~/.config/callwatch/config.toml, .env and CALLWATCH_*
//  2. logging.New opens the log file (the TUI owns the terminal)
//  3. connect builds the credential store, metrics recorder, API client,
//     poll scheduler and session manager
//  4. signIn restores a remembered session or tries the configured pair
//  5. ui.Run blocks until the user quits or the context is cancelled
//
// A failed sign-in is not fatal. The UI starts on the Settings page so the
// operator can sign in once the backend is reachable. Polling is owned by
// the UI pages; nothing polls in the background before the first page is
// shown.
package app
