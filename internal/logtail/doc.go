// Package logtail reads the tail of callwatch's own log file for display on
// the Settings page.
//
// Read returns the last N lines using a ring buffer, so memory stays at
// O(N) regardless of file size. Parse decodes the JSON lines written by the
// zap logger into an Entry whose Format method yields a compact one-line
// rendering:
//
//	14:32:15 WARN  voiceapi.request_failed endpoint=/api/calls status=401
//
// Lines that are not JSON are passed through unchanged. A missing log file
// reads as empty.
package logtail
