package voiceapi

import (
	"net/http"
	"net/url"
)

// Endpoint describes one HTTP call before it is executed.
type Endpoint struct {
	// Name labels the call in logs and metrics; it is the path template
	// (e.g. /api/calls/{id}) and defaults to Path.
	Name   string
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Get builds a GET endpoint.
func Get(path string, query url.Values) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: path, Query: query}
}

// Post builds a POST endpoint with a JSON body.
func Post(path string, body any) Endpoint {
	return Endpoint{Method: http.MethodPost, Path: path, Body: body}
}

// Named returns a copy of e labelled name.
func (e Endpoint) Named(name string) Endpoint {
	e.Name = name
	return e
}

func (e Endpoint) label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Path
}

func (e Endpoint) method() string {
	if e.Method == "" {
		return http.MethodGet
	}
	return e.Method
}

func (e Endpoint) relURL() *url.URL {
	rel := &url.URL{Path: e.Path}
	if len(e.Query) > 0 {
		rel.RawQuery = e.Query.Encode()
	}
	return rel
}
