// Package state exposes one remote fetch as an observable, thread-safe value.
//
// # Overview
//
// A Resource wraps a Producer (usually a voiceapi.Client method) and tracks
// the result of its latest attempt as an Outcome. Views read Outcome to
// render loading, data and error states, and call Execute to refresh.
//
//	Producer (voiceapi):            Consumer (UI):
//	┌────────────────┐             ┌──────────────────┐
//	│ Execute()      │             │                  │
//	│   ↓ goroutine  │             │                  │
//	│ producer(ctx)  │             │                  │
//	│   ↓            │  (mutex)    │                  │
//	│ apply result   │────────────→│ res.Outcome()    │
//	│   ↓            │             │   ↓              │
//	│ notify()       │────────────→│ render page      │
//	└────────────────┘             └──────────────────┘
//
// # Lifecycle
//
//	Idle ──Execute──→ Pending ──→ Succeeded
//	                     ↑    └──→ Failed
//	                     └──Execute── (from either)
//
// Idle only exists for resources created with immediate=false. Pending
// clears the previous error but keeps the previous value, so a page can keep
// showing data while it refreshes. Failed keeps the last good value as well;
// HasValue tells whether there is one.
//
// # Overlapping attempts
//
// Execute may be called while an attempt is running (a poll tick racing a
// manual refresh). Every attempt carries a generation number and only the
// most recently issued one may change state: last-issued-wins. Superseded
// attempts still run to completion but their results are dropped.
//
// # Teardown
//
// Close cancels the context of any running attempt and guarantees that no
// later completion changes the Outcome or fires the notify callback. Execute
// after Close is a no-op. Close is idempotent.
//
// # Concurrency Model
//
// All fields are guarded by a mutex. Notify callbacks run outside the lock;
// they may call back into the Resource. Because notifications from
// different attempts can race, Outcome carries a Version that increases on
// every state change.
package state
