// Package mockapi is an in-memory stand-in for the Voice AI backend.
//
// It serves the demo data set of the web dashboard on every endpoint the
// client knows about, enforces HTTP basic auth on /api routes and reports
// failures with the backend's {"error": "..."} envelope. SetFault forces
// every /api call to fail, which is handy for exercising offline states.
//
// The server backs cmd/callwatch-mock and the integration tests of the
// client packages.
package mockapi
