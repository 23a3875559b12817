// Package session implements login and logout on top of the shared
// credential store: credentials are checked against a protected endpoint
// before they are kept, and optionally remembered in the preferences file.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/credentials"
	"github.com/voicedesk/callwatch/internal/prefs"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// ErrUsernameRequired is returned by Login for a blank username.
var ErrUsernameRequired = errors.New("username required")

// ErrSuperseded is returned when a Logout or a newer Login or Restore
// landed while the credentials were being checked. The checked pair is
// discarded.
var ErrSuperseded = errors.New("login superseded")

// Verifier makes one protected call that succeeds only with valid
// credentials. It must honour voiceapi.ContextWithCredentials.
type Verifier interface {
	DashboardMetrics(ctx context.Context) (*voiceapi.DashboardMetrics, error)
}

// Manager owns the authenticated flag of the application. No lock is held
// while a pair is checked on the network, so Authenticated never blocks.
type Manager struct {
	creds     *credentials.Store
	verifier  Verifier
	prefsPath string
	logger    *zap.Logger

	// mu orders commits against Logout; seq identifies the latest attempt.
	mu     sync.Mutex
	seq    atomic.Uint64
	authed atomic.Bool
}

// NewManager returns a Manager that checks candidate pairs through verifier.
// Only a pair that passed the check is published to creds.
func NewManager(creds *credentials.Store, verifier Verifier, prefsPath string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{creds: creds, verifier: verifier, prefsPath: prefsPath, logger: logger}
}

// Authenticated reports whether the last Login or Restore succeeded and no
// Logout followed.
func (m *Manager) Authenticated() bool {
	return m.authed.Load()
}

// Username returns the user currently held in the credential store.
func (m *Manager) Username() string {
	return m.creds.Get().Username
}

func (m *Manager) check(ctx context.Context, pair credentials.Credentials) error {
	_, err := m.verifier.DashboardMetrics(voiceapi.ContextWithCredentials(ctx, pair))
	return err
}

// commit publishes pair if no other attempt or Logout started after gen.
func (m *Manager) commit(gen uint64, pair credentials.Credentials, authed bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq.Load() != gen {
		return false
	}
	m.creds.Set(pair.Username, pair.Password)
	m.authed.Store(authed)
	return true
}

// Login checks the pair with one protected call and installs it only when
// the call succeeds. On failure the previous credentials and authenticated
// state are kept. With remember set, the pair is written to the preferences
// file; a failed write is logged and does not fail the login.
func (m *Manager) Login(ctx context.Context, username, password string, remember bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}

	gen := m.seq.Add(1)
	pair := credentials.Credentials{Username: username, Password: password}
	if err := m.check(ctx, pair); err != nil {
		m.logger.Warn("session.login_failed",
			zap.String("username", username),
			zap.String("reason", voiceapi.Message(err)))
		return fmt.Errorf("login: %w", err)
	}
	if !m.commit(gen, pair, true) {
		m.logger.Info("session.login_superseded", zap.String("username", username))
		return ErrSuperseded
	}

	if remember {
		if err := prefs.RememberCredentials(m.prefsPath, pair); err != nil {
			m.logger.Warn("session.remember_failed", zap.Error(err))
		}
	} else if err := prefs.ClearCredentials(m.prefsPath); err != nil {
		m.logger.Warn("session.forget_failed", zap.Error(err))
	}

	m.logger.Info("session.login", zap.String("username", username), zap.Bool("remember", remember))
	return nil
}

// Logout clears the in-memory credentials and any remembered pair. A check
// still in flight is discarded when it completes.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.seq.Add(1)
	m.creds.Clear()
	m.authed.Store(false)
	m.mu.Unlock()
	m.logger.Info("session.logout")

	if err := prefs.ClearCredentials(m.prefsPath); err != nil {
		return fmt.Errorf("forget credentials: %w", err)
	}
	return nil
}

// Restore loads remembered credentials and checks them. It reports false
// with a nil error when nothing was remembered. Rejected credentials are
// cleared from memory and disk; other failures install them unauthenticated
// so a later retry can succeed.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		return false, err
	}
	saved, ok := p.Remembered()
	if !ok {
		return false, nil
	}

	gen := m.seq.Add(1)
	if err := m.check(ctx, saved); err != nil {
		if voiceapi.IsUnauthorized(err) {
			if !m.commit(gen, credentials.Credentials{}, false) {
				return false, ErrSuperseded
			}
			if clearErr := prefs.ClearCredentials(m.prefsPath); clearErr != nil {
				m.logger.Warn("session.forget_failed", zap.Error(clearErr))
			}
		} else {
			m.commit(gen, saved, false)
		}
		m.logger.Warn("session.restore_failed",
			zap.String("username", saved.Username),
			zap.String("reason", voiceapi.Message(err)))
		return false, fmt.Errorf("restore session: %w", err)
	}
	if !m.commit(gen, saved, true) {
		return false, ErrSuperseded
	}

	m.logger.Info("session.restored", zap.String("username", saved.Username))
	return true, nil
}
