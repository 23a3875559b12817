// Package poll repeats refreshes of request-state resources at a fixed
// cadence.
//
// A Scheduler hands out one Handle per subscription. Each Handle owns a
// ticker and a goroutine that calls Execute on every tick; Unsubscribe stops
// both and returns only once no further Execute can be issued. Failed
// refreshes do not change the cadence.
//
// Group collects the subscriptions of a single view so that leaving the view
// releases its timers and resources together.
package poll
