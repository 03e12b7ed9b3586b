// internal/browser/cdpdriver/session.go
// Package cdpdriver implements browser.Session on top of chromedp, driving a
// local Chromium over the DevTools protocol.
package cdpdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	startupTimeout           = 45 * time.Second
	shutdownTimeout          = 10 * time.Second
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("cdp session is closed")

// Session is a chromedp-backed browser.Session owning one browser process
// with a single tab.
type Session struct {
	id     string
	logger *zap.Logger

	// ctx is the tab context. It carries the CDP target and lives until Close.
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	navTimeout time.Duration
	closeOnce  sync.Once
	closeErr   error
}

var _ browser.Session = (*Session)(nil)

// New launches a browser according to opts and returns a session bound to
// its first tab. ctx bounds the startup only; the browser lives until Close.
func New(ctx context.Context, opts browser.LaunchOptions, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	log := logger.Named("cdp").With(zap.String("session_id", id))

	// 1. Allocator. Defined explicitly rather than from chromedp's defaults so
	// the headless switch is under our control.
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	for _, f := range opts.ChromeFlags() {
		allocOpts = append(allocOpts, chromedp.Flag(f.Name, f.Value))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	// The browser must outlive ctx, and chromedp rejects value-only contexts.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))

	s := &Session{
		id:          id,
		logger:      log,
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		navTimeout:  defaultNavigationTimeout,
	}

	// 2. The first Run starts the browser. It must run on the tab context
	// itself, otherwise canceling the startup deadline would kill the browser.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()
	select {
	case err := <-started:
		if err != nil {
			s.shutdown()
			return nil, fmt.Errorf("start browser: %w", err)
		}
	case <-ctx.Done():
		s.shutdown()
		return nil, fmt.Errorf("start browser: %w", ctx.Err())
	case <-time.After(startupTimeout):
		s.shutdown()
		return nil, fmt.Errorf("start browser: timed out after %v", startupTimeout)
	}

	// 3. Deny permissions that would otherwise raise OS prompts over the page.
	if opts.BlockPrompts {
		if err := s.run(ctx, blockPermissions()); err != nil {
			log.Warn("Could not block permission prompts.", zap.Error(err))
		}
	}

	log.Info("Browser session started.", zap.Bool("headless", opts.Headless))
	return s, nil
}

func blockPermissions() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		c := chromedp.FromContext(ctx)
		if c == nil || c.Browser == nil {
			return errors.New("no browser in context")
		}
		bctx := cdp.WithExecutor(ctx, c.Browser)
		for _, name := range browser.BlockedPermissions {
			desc := &cdpbrowser.PermissionDescriptor{Name: name}
			if err := cdpbrowser.SetPermission(desc, cdpbrowser.PermissionSettingDenied).Do(bctx); err != nil {
				return fmt.Errorf("deny %s: %w", name, err)
			}
		}
		return nil
	})
}

// WithNavigationTimeout sets the per-navigation deadline.
func (s *Session) WithNavigationTimeout(d time.Duration) *Session {
	if d > 0 {
		s.navTimeout = d
	}
	return s
}

func (s *Session) ID() string { return s.id }

// run executes actions on the tab, canceled by either the session or ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	runCtx, cancel := browser.CombineContext(s.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return ErrClosed
		}
		return classify(err)
	}
	return nil
}

// classify maps protocol errors that mean "the node is gone" onto ErrStale.
func classify(err error) error {
	msg := err.Error()
	for _, marker := range []string{
		"No node with given id",
		"Could not find node with given id",
		"Node is detached",
		"Cannot find context with specified id",
		"Node does not have a layout object",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", browser.ErrStale, err)
		}
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	navCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()
	if err := s.run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, s.navTimeout, navCtx.Err())
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *Session) Find(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	var query chromedp.Action
	if css, ok := loc.CSS(); ok {
		query = chromedp.Nodes(css, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))
	} else {
		query = chromedp.Nodes(loc.Expression, &nodes, chromedp.BySearch, chromedp.AtLeast(0))
	}
	if err := s.run(ctx, query); err != nil {
		return nil, err
	}
	els := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeType != cdp.NodeTypeElement {
			continue
		}
		els = append(els, &element{s: s, node: n})
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
	var buf []byte
	// Quality 100 keeps the capture in PNG.
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

func (s *Session) DocumentSource(ctx context.Context) (string, error) {
	var src string
	if err := s.run(ctx, chromedp.OuterHTML("html", &src, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("document source: %w", err)
	}
	return src, nil
}

// Close shuts the browser down gracefully, bounded by shutdownTimeout. Later
// calls return the first call's result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()

		timer := time.NewTimer(shutdownTimeout)
		defer timer.Stop()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.closeErr = fmt.Errorf("close browser: %w", err)
			}
		case <-ctx.Done():
			s.closeErr = fmt.Errorf("close browser: %w", ctx.Err())
		case <-timer.C:
			s.logger.Warn("Browser shutdown timed out; forcing.", zap.Duration("timeout", shutdownTimeout))
		}
		s.shutdown()
	})
	return s.closeErr
}

func (s *Session) shutdown() {
	s.cancel()
	s.allocCancel()
}
