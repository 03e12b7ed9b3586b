// internal/browser/launcher/launcher.go
// Package launcher starts the browser backend named by configuration.
package launcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/browser/cdpdriver"
	"github.com/xkilldash9x/regwizard/internal/browser/pwdriver"
	"github.com/xkilldash9x/regwizard/internal/config"
)

// StartFunc starts one backend.
type StartFunc func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (browser.Session, error)

// Launcher opens a fresh session per scenario with the configured backend.
type Launcher struct {
	cfg      config.BrowserConfig
	logger   *zap.Logger
	backends map[string]StartFunc
}

// New returns a Launcher for cfg with the chromedp and Playwright backends registered.
func New(cfg config.BrowserConfig, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		cfg:    cfg,
		logger: logger.Named("launcher"),
		backends: map[string]StartFunc{
			browser.DriverChromedp:   startChromedp,
			browser.DriverPlaywright: startPlaywright,
		},
	}
}

// WithBackend registers or replaces the backend for name.
func (l *Launcher) WithBackend(name string, start StartFunc) *Launcher {
	l.backends[name] = start
	return l
}

// Open starts a session with the configured driver.
func (l *Launcher) Open(ctx context.Context) (browser.Session, error) {
	start, ok := l.backends[l.cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unknown browser driver %q", l.cfg.Driver)
	}
	l.logger.Info("Starting browser.", zap.String("driver", l.cfg.Driver), zap.Bool("headless", l.cfg.Headless))
	s, err := start(ctx, l.cfg, l.logger)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", l.cfg.Driver, err)
	}
	return s, nil
}

func startChromedp(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (browser.Session, error) {
	s, err := cdpdriver.New(ctx, cfg.LaunchOptions(), logger)
	if err != nil {
		return nil, err
	}
	return s.WithNavigationTimeout(cfg.NavigationTimeout), nil
}

func startPlaywright(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (browser.Session, error) {
	s, err := pwdriver.New(ctx, cfg.LaunchOptions(), logger)
	if err != nil {
		return nil, err
	}
	return s.WithNavigationTimeout(cfg.NavigationTimeout), nil
}
