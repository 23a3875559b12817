package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/config"
	"github.com/voicedesk/callwatch/internal/logging"
	"github.com/voicedesk/callwatch/internal/prefs"
	"github.com/voicedesk/callwatch/internal/ui"
)

// Options configure the callwatch application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/callwatch/prefs.toml
	PollEvery  time.Duration // overrides every enabled poll interval; zero keeps the config
	APIURL     string        // overrides api_url
}

// Run boots the callwatch TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = applyOverrides(cfg, opts)

	logger, flush, err := logging.New(logging.Options{Path: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer flush()

	svc, err := connect(cfg, opts.PrefsPath, logger)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		svc.metrics.Serve(ctx, cfg.MetricsAddr, logger)
		logger.Info("metrics.serving", zap.String("addr", cfg.MetricsAddr))
	}

	start := ui.PageDashboard
	if !svc.signIn(ctx, cfg) {
		start = ui.PageSettings
	}

	userPrefs := loadPrefs(opts.PrefsPath, logger)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Client:    svc.client,
		Session:   svc.session,
		Scheduler: svc.sched,
		Config:    cfg,
		Logger:    logger,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		StartPage: start,
	})
	if err != nil && ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
		// Interrupted by a signal.
		err = nil
	}
	logger.Info("callwatch.exit", zap.Error(err))
	return err
}

var readPrefs = prefs.Load

// loadPrefs returns the saved preferences. A failed read is logged and the
// defaults returned by the loader are used.
func loadPrefs(path string, logger *zap.Logger) prefs.Prefs {
	p, err := readPrefs(path)
	if err != nil {
		logger.Warn("app.load_prefs_failed", zap.String("path", path), zap.Error(err))
	}
	return p
}

func applyOverrides(cfg config.Config, opts Options) config.Config {
	if url := strings.TrimSpace(opts.APIURL); url != "" {
		cfg.APIURL = url
	}
	if opts.PollEvery > 0 {
		cfg.Poll = cfg.Poll.Scale(opts.PollEvery)
	}
	return cfg
}
