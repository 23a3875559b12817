package voiceapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork means the server could not be reached or the exchange broke off.
	KindNetwork Kind = iota + 1
	// KindRequest means the server answered with a non-2xx status.
	KindRequest
	// KindParse means a 2xx body was not valid JSON or did not match its schema.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network_failed"
	case KindRequest:
		return "request_failed"
	case KindParse:
		return "parse_failed"
	default:
		return "unknown"
	}
}

// Error is returned when a request fails on the wire or in its response.
type Error struct {
	Kind    Kind
	Status  int // HTTP status for KindRequest, otherwise zero
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errorEnvelope is the backend's failure body.
type errorEnvelope struct {
	Error string `json:"error"`
}

func requestError(status int, body []byte) *Error {
	msg := ""
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		msg = strings.TrimSpace(env.Error)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{Kind: KindRequest, Status: status, Message: msg}
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf("network error: %v", err), Err: err}
}

func parseError(err error) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf("invalid response: %v", err), Err: err}
}

func kindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsNetwork reports whether err is a NetworkFailed error.
func IsNetwork(err error) bool { return kindOf(err) == KindNetwork }

// IsRequest reports whether err is a RequestFailed error.
func IsRequest(err error) bool { return kindOf(err) == KindRequest }

// IsParse reports whether err is a ParseFailed error.
func IsParse(err error) bool { return kindOf(err) == KindParse }

// IsUnauthorized reports whether the backend rejected the credentials.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindRequest {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// Message returns a display-ready message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An error occurred"
}
