// Package prefs handles callwatch user preferences persistence.
// Preferences are stored in ~/.config/callwatch/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/voicedesk/callwatch/internal/credentials"
)

// Prefs holds user preferences for callwatch. Credentials is set only when
// the user asked to be remembered at login.
type Prefs struct {
	Theme       string                   `toml:"theme"`
	Credentials *credentials.Credentials `toml:"credentials,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/callwatch/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Remembered returns the persisted credentials, if any.
func (p Prefs) Remembered() (credentials.Credentials, bool) {
	if p.Credentials == nil || p.Credentials.IsZero() {
		return credentials.Credentials{}, false
	}
	return *p.Credentials, true
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	prefs := Prefs{Theme: defaultTheme}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
// The file is private to the user since it may hold a password.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(resolved, 0o600); err != nil {
		return fmt.Errorf("chmod prefs: %w", err)
	}

	return nil
}

// Update loads the preferences at path, applies fn and saves the result.
func Update(path string, fn func(*Prefs)) error {
	p, err := Load(path)
	if err != nil {
		return err
	}
	fn(&p)
	return Save(path, p)
}

// RememberCredentials persists c alongside the other preferences.
func RememberCredentials(path string, c credentials.Credentials) error {
	return Update(path, func(p *Prefs) {
		p.Credentials = &c
	})
}

// ClearCredentials removes any persisted credentials. A missing file is left
// missing.
func ClearCredentials(path string) error {
	p, err := Load(path)
	if err != nil {
		return err
	}
	if p.Credentials == nil {
		return nil
	}
	p.Credentials = nil
	return Save(path, p)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
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
