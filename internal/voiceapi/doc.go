// Package voiceapi is the HTTP transport for the Voice AI backend.
//
// # Overview
//
// Client issues one authenticated JSON request per call and normalizes every
// failure into an *Error. Typed helpers cover the dashboard endpoints:
//
//	GET  /api/dashboard/metrics
//	GET  /api/dashboard/recent-calls?limit=N
//	GET  /api/dashboard/system-status
//	GET  /api/dashboard/live-stats
//	GET  /api/dashboard/call-trends?days=N
//	GET  /api/calls?page=P&per_page=N[&status=S]
//	GET  /api/calls/{id}
//	GET  /api/appointments?page=P&per_page=N
//	POST /api/book-appointment
//	GET  /api/available-slots?date=D&duration=N
//	POST /api/crm-trigger
//	GET  /health
//
// # Authentication
//
// Every request carries Content-Type: application/json and
// Authorization: Basic base64(username:password). The pair is read from the
// injected credentials.Store while the request is built, so a request already
// on the wire keeps the credentials it started with even if the store is
// updated before it completes.
//
// # Errors
//
// Failures are classified by Kind:
//
//   - KindNetwork: the server could not be reached (DNS, refused, timeout,
//     cancelled context)
//   - KindRequest: non-2xx status; Message is the body's "error" field, or
//     "HTTP <status>" when the body has none
//   - KindParse: 2xx status with a body that is not JSON or fails the
//     response schema's Validate
//
// Message(err) returns the display string for any error.
//
// # Retries
//
// None. Each call is exactly one network attempt; refresh cadence lives in
// the poll package.
package voiceapi
