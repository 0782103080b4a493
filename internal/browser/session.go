// Package browser builds the rod session the e2e suite drives: a locally
// launched headless Chrome, or an attachment to a remote browser node when
// REMOTE_URL is set (the orchestrator injects it inside the controller pod).
package browser

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Session owns one browser for the lifetime of a test run.
type Session struct {
	Browser *rod.Browser
	logger  *slog.Logger
}

// NewFromEnv builds a Session from the suite's environment surface:
// HEADLESS (default true) and REMOTE_URL (empty means launch locally).
func NewFromEnv(logger *slog.Logger) (*Session, error) {
	headless := envBool("HEADLESS", true)
	remoteURL := os.Getenv("REMOTE_URL")

	if remoteURL != "" {
		logger.Info("attaching to remote browser node", "url", remoteURL)
		return connectRemote(remoteURL, logger)
	}
	logger.Info("launching local chrome", "headless", headless)
	return launchLocal(headless, logger)
}

func connectRemote(remoteURL string, logger *slog.Logger) (*Session, error) {
	u, err := launcher.ResolveURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("resolving remote browser url %s: %w", remoteURL, err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to remote browser: %w", err)
	}
	return &Session{Browser: b, logger: logger}, nil
}

func launchLocal(headless bool, logger *slog.Logger) (*Session, error) {
	l := launcher.New().
		Headless(headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("window-size", "1920,1080").
		Set("disable-extensions").
		Set("disable-notifications").
		Set("disable-popup-blocking")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching chrome: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to chrome: %w", err)
	}
	return &Session{Browser: b, logger: logger}, nil
}

// Close tears the browser down. Always defer this; a leaked Chrome keeps
// the browser node's session slot occupied.
func (s *Session) Close() error {
	if s.Browser == nil {
		return nil
	}
	s.logger.Info("closing browser")
	return s.Browser.Close()
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "":
		return fallback
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
