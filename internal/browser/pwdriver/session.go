// internal/browser/pwdriver/session.go
// Package pwdriver implements browser.Session with Playwright. It is the
// alternative backend, selected with browser.driver=playwright.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultActionTimeout     = 5 * time.Second
)

// Session is a Playwright-backed browser.Session with one page.
type Session struct {
	id     string
	logger *zap.Logger

	runner  *pw.Playwright
	browser pw.Browser
	page    pw.Page

	navTimeout time.Duration
	closeOnce  sync.Once
	closeErr   error
}

var _ browser.Session = (*Session)(nil)

// New starts the Playwright driver and a Chromium instance configured from opts.
func New(ctx context.Context, opts browser.LaunchOptions, logger *zap.Logger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	log := logger.Named("playwright").With(zap.String("session_id", id))

	// 1. Driver.
	runner, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	s := &Session{id: id, logger: log, runner: runner, navTimeout: defaultNavigationTimeout}

	// 2. Browser. Playwright owns the headless switch itself.
	launch := pw.BrowserTypeLaunchOptions{Headless: pw.Bool(opts.Headless)}
	for _, f := range opts.ChromeFlags() {
		if f.Name == "headless" {
			continue
		}
		launch.Args = append(launch.Args, f.String())
	}
	if opts.ExecPath != "" {
		launch.ExecutablePath = pw.String(opts.ExecPath)
	}
	if s.browser, err = runner.Chromium.Launch(launch); err != nil {
		s.stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	// 3. Context and page. Playwright denies permission prompts unless they
	// were granted, so blocking only has to clear any grants.
	ctxOpts := pw.BrowserNewContextOptions{}
	if opts.Headless {
		w, h := opts.WindowWidth, opts.WindowHeight
		if w <= 0 || h <= 0 {
			w, h = 1400, 900
		}
		ctxOpts.Viewport = &pw.Size{Width: w, Height: h}
	} else {
		ctxOpts.NoViewport = pw.Bool(true)
	}
	bctx, err := s.browser.NewContext(ctxOpts)
	if err != nil {
		s.stop()
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	if opts.BlockPrompts {
		if err := bctx.ClearPermissions(); err != nil {
			log.Warn("Could not clear permissions.", zap.Error(err))
		}
	}
	if s.page, err = bctx.NewPage(); err != nil {
		s.stop()
		return nil, fmt.Errorf("new page: %w", err)
	}
	s.page.SetDefaultTimeout(float64(defaultActionTimeout.Milliseconds()))

	log.Info("Browser session started.", zap.Bool("headless", opts.Headless))
	return s, nil
}

// WithNavigationTimeout sets the per-navigation deadline.
func (s *Session) WithNavigationTimeout(d time.Duration) *Session {
	if d > 0 {
		s.navTimeout = d
	}
	return s
}

func (s *Session) ID() string { return s.id }

// timeoutMS bounds def by ctx's deadline, in the milliseconds Playwright expects.
func timeoutMS(ctx context.Context, def time.Duration) *float64 {
	d := def
	if dl, ok := ctx.Deadline(); ok {
		if r := time.Until(dl); r < d {
			d = r
		}
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return pw.Float(float64(d.Milliseconds()))
}

// classify maps Playwright failures onto the browser sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "intercepts pointer events"):
		return fmt.Errorf("%w: %v", browser.ErrClickIntercepted, err)
	case strings.Contains(msg, "not attached to the DOM"),
		strings.Contains(msg, "is disposed"),
		strings.Contains(msg, "Execution context was destroyed"):
		return fmt.Errorf("%w: %v", browser.ErrStale, err)
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("Navigating.", zap.String("url", url))
	if _, err := s.page.Goto(url, pw.PageGotoOptions{Timeout: timeoutMS(ctx, s.navTimeout)}); err != nil {
		if errors.Is(err, pw.ErrTimeout) {
			return fmt.Errorf("navigation to %s timed out: %w", url, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// selector renders loc in Playwright's engine-prefixed selector syntax.
func selector(loc browser.Locator) string {
	if css, ok := loc.CSS(); ok {
		return "css=" + css
	}
	return "xpath=" + loc.Expression
}

func (s *Session) Find(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := s.page.QuerySelectorAll(selector(loc))
	if err != nil {
		return nil, classify(err)
	}
	els := make([]browser.Element, len(handles))
	for i, h := range handles {
		els[i] = &element{s: s, h: h}
	}
	return els, nil
}

func (s *Session) ExecuteScript(ctx context.Context, fn string, target browser.Element) error {
	el, ok := target.(*element)
	if !ok || el.s != s {
		return browser.ErrForeignElement
	}
	return el.call(ctx, fn, nil)
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := s.page.Screenshot(pw.PageScreenshotOptions{
		FullPage: pw.Bool(true),
		Type:     pw.ScreenshotTypePng,
		Timeout:  timeoutMS(ctx, 30*time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (s *Session) DocumentSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("document source: %w", err)
	}
	return src, nil
}

// Close stops the browser and the driver. Later calls return the first
// call's result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- s.stop() }()
		select {
		case s.closeErr = <-done:
		case <-ctx.Done():
			s.closeErr = fmt.Errorf("close playwright: %w", ctx.Err())
		}
	})
	return s.closeErr
}

func (s *Session) stop() error {
	var errs []error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if err := s.runner.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop driver: %w", err))
	}
	return errors.Join(errs...)
}
