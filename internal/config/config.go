package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the callwatch runtime configuration.
type Config struct {
	APIURL         string
	Username       string
	Password       string
	LogFile        string
	LogLevel       string
	MetricsAddr    string
	RequestTimeout time.Duration
	Poll           PollIntervals
}

// PollIntervals holds the refresh period of each polled resource. A zero
// interval disables scheduled refreshes for that resource.
type PollIntervals struct {
	Metrics      time.Duration
	RecentCalls  time.Duration
	SystemStatus time.Duration
	Calls        time.Duration
	Live         time.Duration
}

const (
	defaultConfigPath     = "~/.config/callwatch/config.toml"
	defaultLogFile        = "~/.local/state/callwatch/callwatch.log"
	defaultAPIURL         = "http://localhost:5001"
	defaultUsername       = "admin"
	defaultPassword       = "password"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
)

// DefaultPoll mirrors the refresh rates of the web dashboard.
var DefaultPoll = PollIntervals{
	Metrics:      10 * time.Second,
	RecentCalls:  15 * time.Second,
	SystemStatus: 30 * time.Second,
	Calls:        30 * time.Second,
	Live:         5 * time.Second,
}

type rawConfig struct {
	APIURL         string  `toml:"api_url"`
	Username       string  `toml:"username"`
	Password       string  `toml:"password"`
	LogFile        string  `toml:"log_file"`
	LogLevel       string  `toml:"log_level"`
	MetricsAddr    string  `toml:"metrics_addr"`
	RequestTimeout string  `toml:"request_timeout"`
	Poll           rawPoll `toml:"poll"`
}

type rawPoll struct {
	Metrics      *string `toml:"metrics"`
	RecentCalls  *string `toml:"recent_calls"`
	SystemStatus *string `toml:"system_status"`
	Calls        *string `toml:"calls"`
	Live         *string `toml:"live"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		Username:       defaultUsername,
		Password:       defaultPassword,
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		RequestTimeout: defaultRequestTimeout,
		Poll:           DefaultPoll,
	}
}

// Load reads the config file at path (or the default location), applies a
// .env file from the working directory if present and then CALLWATCH_*
// environment overrides. A missing config file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if raw != nil {
		if err := cfg.apply(*raw); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (*rawConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &raw, nil
}

func (c *Config) apply(raw rawConfig) error {
	setString(&c.APIURL, raw.APIURL)
	setString(&c.Username, raw.Username)
	setString(&c.Password, raw.Password)
	setString(&c.LogLevel, raw.LogLevel)
	setString(&c.MetricsAddr, raw.MetricsAddr)
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := parseDuration("request_timeout", v)
		if err != nil {
			return err
		}
		c.RequestTimeout = d
	}

	fields := []struct {
		key string
		raw *string
		dst *time.Duration
	}{
		{"poll.metrics", raw.Poll.Metrics, &c.Poll.Metrics},
		{"poll.recent_calls", raw.Poll.RecentCalls, &c.Poll.RecentCalls},
		{"poll.system_status", raw.Poll.SystemStatus, &c.Poll.SystemStatus},
		{"poll.calls", raw.Poll.Calls, &c.Poll.Calls},
		{"poll.live", raw.Poll.Live, &c.Poll.Live},
	}
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		d, err := parseDuration(f.key, *f.raw)
		if err != nil {
			return err
		}
		*f.dst = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.APIURL = getEnv("CALLWATCH_API_URL", c.APIURL)
	c.Username = getEnv("CALLWATCH_USERNAME", c.Username)
	c.Password = getEnv("CALLWATCH_PASSWORD", c.Password)
	c.LogLevel = getEnv("CALLWATCH_LOG_LEVEL", c.LogLevel)
	c.MetricsAddr = getEnv("CALLWATCH_METRICS_ADDR", c.MetricsAddr)
	if v := os.Getenv("CALLWATCH_LOG_FILE"); strings.TrimSpace(v) != "" {
		c.LogFile = mustExpand(v)
	}
	if v := os.Getenv("CALLWATCH_REQUEST_TIMEOUT"); v != "" {
		d, err := parseDuration("CALLWATCH_REQUEST_TIMEOUT", v)
		if err != nil {
			return err
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("CALLWATCH_POLL"); v != "" {
		d, err := parseDuration("CALLWATCH_POLL", v)
		if err != nil {
			return err
		}
		c.Poll = c.Poll.Scale(d)
	}
	return nil
}

// Scale returns a copy with every enabled interval replaced by d. Disabled
// (zero) intervals stay disabled.
func (p PollIntervals) Scale(d time.Duration) PollIntervals {
	set := func(v time.Duration) time.Duration {
		if v == 0 {
			return 0
		}
		return d
	}
	return PollIntervals{
		Metrics:      set(p.Metrics),
		RecentCalls:  set(p.RecentCalls),
		SystemStatus: set(p.SystemStatus),
		Calls:        set(p.Calls),
		Live:         set(p.Live),
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", key, v)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
