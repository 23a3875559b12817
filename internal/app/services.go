package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/config"
	"github.com/voicedesk/callwatch/internal/credentials"
	"github.com/voicedesk/callwatch/internal/metrics"
	"github.com/voicedesk/callwatch/internal/poll"
	"github.com/voicedesk/callwatch/internal/session"
	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// services are the long-lived collaborators shared by every page.
type services struct {
	creds   *credentials.Store
	metrics *metrics.Recorder
	client  *voiceapi.Client
	sched   *poll.Scheduler
	session *session.Manager
	logger  *zap.Logger
}

// connect builds the transport stack. It does not touch the network.
func connect(cfg config.Config, prefsPath string, logger *zap.Logger) (*services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// The session owns the credentials; nothing is trusted until checked.
	creds := credentials.New(credentials.Credentials{})
	rec := metrics.New()

	client, err := voiceapi.NewClient(cfg.APIURL, creds,
		voiceapi.WithLogger(logger),
		voiceapi.WithMetrics(rec),
		voiceapi.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &services{
		creds:   creds,
		metrics: rec,
		client:  client,
		sched:   poll.NewScheduler(poll.WithLogger(logger), poll.WithMetrics(rec)),
		session: session.NewManager(creds, client, prefsPath, logger),
		logger:  logger,
	}, nil
}

// signIn restores a remembered session, or else tries the configured
// credentials. A remembered pair that could not be checked is left alone
// rather than replaced by the configured one. It reports whether a session
// is active.
func (s *services) signIn(ctx context.Context, cfg config.Config) bool {
	restored, err := s.session.Restore(ctx)
	if err != nil {
		s.logger.Warn("app.restore_failed", zap.String("reason", voiceapi.Message(err)))
		if !voiceapi.IsUnauthorized(err) {
			return false
		}
	}
	if restored {
		return true
	}

	if cfg.Username == "" || cfg.Password == "" {
		return false
	}
	if err := s.session.Login(ctx, cfg.Username, cfg.Password, false); err != nil {
		s.logger.Warn("app.login_failed",
			zap.String("username", cfg.Username),
			zap.String("reason", voiceapi.Message(err)))
		return false
	}
	return true
}
