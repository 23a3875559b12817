// Package credentials holds the basic-auth pair attached to every backend call.
package credentials

import (
	"encoding/base64"
	"sync"
)

// Credentials is a username/password pair for HTTP basic auth.
type Credentials struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// IsZero reports whether both fields are empty.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.Password == ""
}

// Store holds the current credentials. The zero value is ready to use and
// holds empty credentials.
type Store struct {
	mu  sync.RWMutex
	cur Credentials
}

// New returns a Store seeded with initial.
func New(initial Credentials) *Store {
	return &Store{cur: initial}
}

// Set replaces the stored pair.
func (s *Store) Set(username, password string) {
	s.mu.Lock()
	s.cur = Credentials{Username: username, Password: password}
	s.mu.Unlock()
}

// Clear resets both fields to empty strings.
func (s *Store) Clear() {
	s.Set("", "")
}

// Get returns a copy of the current pair.
func (s *Store) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// BasicAuth returns the Authorization header value for the current pair.
func (s *Store) BasicAuth() string {
	return Header(s.Get())
}

// Header encodes c as a basic-auth Authorization header value.
func Header(c Credentials) string {
	token := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Password))
	return "Basic " + token
}
