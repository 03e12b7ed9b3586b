// internal/pages/page.go
// Package pages holds the page objects for the registration wizard: the home
// page, the personal-details step and the address step. Page objects keep no
// element handles between calls. Every method re-resolves its locators against
// the current document and synchronizes only through the wait engine.
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/wait"
)

// page is the state shared by every page object: the scenario's session, the
// wait engine bound to it, timings and a logger.
type page struct {
	session  browser.Session
	wait     *wait.Engine
	timeouts Timeouts
	logger   *zap.Logger
}

func newPage(session browser.Session, logger *zap.Logger, t Timeouts, name string) page {
	if logger == nil {
		logger = zap.NewNop()
	}
	t = t.withDefaults()
	return page{
		session:  session,
		wait:     wait.New(session, logger).WithPollInterval(t.PollDefault),
		timeouts: t,
		logger:   logger.Named(name),
	}
}

// typeInto waits for the field, clears it and types value. It never appends.
func (p page) typeInto(ctx context.Context, loc browser.Locator, value string) error {
	el, err := p.wait.Visible(ctx, loc, p.timeouts.Structural)
	if err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("clear %s: %w", loc, err)
	}
	if err := el.Type(ctx, value); err != nil {
		return fmt.Errorf("type into %s: %w", loc, err)
	}
	return nil
}

// typeIfPresent fills the first match of loc when it exists and reports
// whether it did. Absence is not an error.
func (p page) typeIfPresent(ctx context.Context, loc browser.Locator, value string) (bool, error) {
	els, err := p.session.Find(ctx, loc)
	if err != nil {
		return false, fmt.Errorf("find %s: %w", loc, err)
	}
	if len(els) == 0 {
		return false, nil
	}
	if err := els[0].Clear(ctx); err != nil {
		return false, fmt.Errorf("clear %s: %w", loc, err)
	}
	if err := els[0].Type(ctx, value); err != nil {
		return false, fmt.Errorf("type into %s: %w", loc, err)
	}
	return true, nil
}

// click waits until loc is interactable and clicks it.
func (p page) click(ctx context.Context, loc browser.Locator) error {
	el, err := p.wait.Interactable(ctx, loc, p.timeouts.Structural)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

// setChecked is an idempotent toggle: it clicks only when the current checked
// state differs from desired. The checked attribute and the native selected
// state are both consulted.
func (p page) setChecked(ctx context.Context, loc browser.Locator, desired bool) error {
	el, err := p.wait.Visible(ctx, loc, p.timeouts.Short)
	if err != nil {
		return err
	}
	checked, err := isChecked(ctx, el)
	if err != nil {
		return fmt.Errorf("read checked state of %s: %w", loc, err)
	}
	if checked == desired {
		p.logger.Debug("Checkbox already in desired state.", zap.Stringer("locator", loc), zap.Bool("checked", checked))
		return nil
	}
	if err := el.Click(ctx); err != nil {
		return fmt.Errorf("toggle %s: %w", loc, err)
	}
	return nil
}

func isChecked(ctx context.Context, el browser.Element) (bool, error) {
	v, ok, err := el.Attribute(ctx, "checked")
	if err != nil {
		return false, err
	}
	if ok && (v == "" || strings.EqualFold(v, "true") || strings.EqualFold(v, "checked")) {
		return true, nil
	}
	return el.IsSelected(ctx)
}

// isEnabled combines the native enabled state with an explicit disabled="true"
// attribute, since UI frameworks are inconsistent about which one they set.
// It blocks no longer than a short visibility wait.
func (p page) isEnabled(ctx context.Context, loc browser.Locator) (bool, error) {
	el, err := p.wait.Visible(ctx, loc, p.timeouts.Short)
	if err != nil {
		return false, err
	}
	return enabled(ctx, el, loc)
}

func enabled(ctx context.Context, el browser.Element, loc browser.Locator) (bool, error) {
	native, err := el.IsEnabled(ctx)
	if err != nil {
		return false, fmt.Errorf("read enabled state of %s: %w", loc, err)
	}
	attr, _, err := el.Attribute(ctx, "disabled")
	if err != nil {
		return false, fmt.Errorf("read disabled attribute of %s: %w", loc, err)
	}
	return native && strings.ToLower(strings.TrimSpace(attr)) != "true", nil
}

// clickWhenEnabled waits until loc is enabled by both sources, then clicks it
// once it is interactable. A natively enabled control that still carries
// disabled="true" is never clicked.
func (p page) clickWhenEnabled(ctx context.Context, loc browser.Locator) error {
	err := p.wait.Until(ctx, p.timeouts.Structural, loc.String()+" enabled", func(ctx context.Context) (bool, error) {
		el, err := p.first(ctx, loc)
		if errors.Is(err, browser.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return enabled(ctx, el, loc)
	})
	if err != nil {
		return err
	}
	return p.click(ctx, loc)
}

// first returns the first match of loc, or an error wrapping
// browser.ErrNotFound so fluent waits treat absence as transient.
func (p page) first(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := p.session.Find(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, browser.ErrNotFound)
	}
	return els[0], nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
