// Package browsertest provides a scripted, in-memory browser.Session for
// exercising waits and page objects without launching a browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/regwizard/internal/browser"
)

// Session is a fake browser.Session. Elements are registered per locator,
// either statically (Put) or through a resolver evaluated on every Find, so
// tests can model pages that render, replace or remove nodes over time.
type Session struct {
	mu        sync.Mutex
	id        string
	resolvers map[string]func() []*Element
	findErrs  map[string][]error
	timers    []*time.Timer

	NavigatedTo []string
	Scripts     []string
	Closed      int
	OnNavigate  func(url string)
}

var _ browser.Session = (*Session)(nil)

// NewSession returns an empty fake session.
func NewSession() *Session {
	return &Session{
		id:        uuid.NewString(),
		resolvers: make(map[string]func() []*Element),
		findErrs:  make(map[string][]error),
	}
}

// NewElement creates an element bound to this session. It starts visible and enabled.
func (s *Session) NewElement(name string) *Element {
	return &Element{
		s:       s,
		Name:    name,
		Visible: true,
		Enabled: true,
		Attrs:   make(map[string]string),
	}
}

// Put makes loc resolve to exactly these elements.
func (s *Session) Put(loc browser.Locator, els ...*Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvers[loc.String()] = func() []*Element { return els }
}

// Resolve makes loc resolve through fn on every Find. fn runs under the session lock.
func (s *Session) Resolve(loc browser.Locator, fn func() []*Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvers[loc.String()] = fn
}

// FailFind queues errors returned, one per call, by the next Finds of loc.
func (s *Session) FailFind(loc browser.Locator, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErrs[loc.String()] = append(s.findErrs[loc.String()], errs...)
}

// Update mutates fake state under the session lock.
func (s *Session) Update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// After runs fn under the session lock once d has elapsed.
func (s *Session) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, time.AfterFunc(d, func() { s.Update(fn) }))
}

// Stop cancels pending After callbacks.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.NavigatedTo = append(s.NavigatedTo, url)
	hook := s.OnNavigate
	s.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return nil
}

func (s *Session) Find(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := loc.String()
	if q := s.findErrs[key]; len(q) > 0 {
		s.findErrs[key] = q[1:]
		return nil, q[0]
	}
	resolve, ok := s.resolvers[key]
	if !ok {
		return nil, nil
	}
	var out []browser.Element
	for _, el := range resolve() {
		if el.Detached {
			continue
		}
		out = append(out, el)
	}
	return out, nil
}

func (s *Session) ExecuteScript(ctx context.Context, fn string, target browser.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, ok := target.(*Element)
	if !ok {
		return browser.ErrForeignElement
	}
	s.mu.Lock()
	s.Scripts = append(s.Scripts, fn)
	if el.Detached {
		s.mu.Unlock()
		return fmt.Errorf("script on %s: %w", el.Name, browser.ErrStale)
	}
	isClick := strings.Contains(fn, ".click()")
	if isClick {
		el.ScriptClicks++
	}
	s.mu.Unlock()
	if isClick {
		el.activate()
	}
	return nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG fake"), ctx.Err()
}

func (s *Session) DocumentSource(ctx context.Context) (string, error) {
	return "<html><body>fake</body></html>", ctx.Err()
}

func (s *Session) Close(context.Context) error {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

// Element is a fake browser.Element. Exported fields may be read or changed
// by tests, but only inside Session.Update/After once the code under test runs.
type Element struct {
	s *Session

	Name     string
	Visible  bool
	Enabled  bool
	Selected bool
	Obscured bool
	Detached bool
	Attrs    map[string]string
	Val      string
	Label    string
	Opts     []browser.Option

	Clicks       int
	ScriptClicks int
	Cleared      int
	Typed        []string

	// OnClick runs (without the lock held) after a native or script click lands.
	OnClick func(e *Element)
	// OnType runs (without the lock held) after text is typed.
	OnType func(e *Element, text string)
	// OnSelect runs (without the lock held) after an option is selected.
	OnSelect func(e *Element, opt browser.Option)
	// ClickErr, when set, is returned by native clicks.
	ClickErr error
}

var _ browser.Element = (*Element)(nil)

// Checkbox marks the element as a checkbox so clicks toggle Selected.
func (e *Element) Checkbox() *Element {
	e.Attrs["type"] = "checkbox"
	return e
}

// WithOptions turns the element into a select control.
func (e *Element) WithOptions(opts ...browser.Option) *Element {
	e.Opts = opts
	return e
}

func (e *Element) read(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if e.Detached {
		return fmt.Errorf("%s: %w", e.Name, browser.ErrStale)
	}
	fn()
	return nil
}

func (e *Element) IsVisible(ctx context.Context) (v bool, err error) {
	err = e.read(ctx, func() { v = e.Visible })
	return
}

func (e *Element) IsEnabled(ctx context.Context) (v bool, err error) {
	err = e.read(ctx, func() { v = e.Enabled })
	return
}

func (e *Element) IsSelected(ctx context.Context) (v bool, err error) {
	err = e.read(ctx, func() { v = e.Selected })
	return
}

func (e *Element) ReceivesPointer(ctx context.Context) (v bool, err error) {
	err = e.read(ctx, func() { v = e.Visible && !e.Obscured })
	return
}

func (e *Element) Attribute(ctx context.Context, name string) (v string, ok bool, err error) {
	err = e.read(ctx, func() { v, ok = e.Attrs[name] })
	return
}

func (e *Element) Value(ctx context.Context) (v string, err error) {
	err = e.read(ctx, func() { v = e.Val })
	return
}

func (e *Element) Text(ctx context.Context) (v string, err error) {
	err = e.read(ctx, func() { v = e.Label })
	return
}

func (e *Element) Click(ctx context.Context) error {
	var err error
	rerr := e.read(ctx, func() {
		switch {
		case e.ClickErr != nil:
			err = e.ClickErr
		case !e.Visible:
			err = fmt.Errorf("%s is not visible", e.Name)
		case e.Obscured:
			err = fmt.Errorf("%s: %w", e.Name, browser.ErrClickIntercepted)
		default:
			e.Clicks++
		}
	})
	if rerr != nil {
		return rerr
	}
	if err != nil {
		return err
	}
	e.activate()
	return nil
}

// activate applies the effects shared by native and script clicks.
func (e *Element) activate() {
	e.s.mu.Lock()
	if e.Attrs["type"] == "checkbox" {
		e.Selected = !e.Selected
		if e.Selected {
			e.Attrs["checked"] = "true"
		} else {
			delete(e.Attrs, "checked")
		}
	}
	hook := e.OnClick
	e.s.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

func (e *Element) Clear(ctx context.Context) error {
	return e.read(ctx, func() {
		e.Val = ""
		e.Cleared++
	})
}

func (e *Element) Type(ctx context.Context, text string) error {
	if err := e.read(ctx, func() {
		e.Val += text
		e.Typed = append(e.Typed, text)
	}); err != nil {
		return err
	}
	e.s.mu.Lock()
	hook := e.OnType
	e.s.mu.Unlock()
	if hook != nil {
		hook(e, text)
	}
	return nil
}

func (e *Element) SelectByValue(ctx context.Context, value string) error {
	return e.selectWhere(ctx, func(o browser.Option) bool { return o.Value == value }, value)
}

func (e *Element) SelectByVisibleText(ctx context.Context, text string) error {
	return e.selectWhere(ctx, func(o browser.Option) bool { return strings.TrimSpace(o.Text) == text }, text)
}

func (e *Element) selectWhere(ctx context.Context, match func(browser.Option) bool, want string) error {
	var (
		picked browser.Option
		found  bool
	)
	if err := e.read(ctx, func() {
		for i := range e.Opts {
			if !found && match(e.Opts[i]) {
				found = true
				e.Opts[i].Selected = true
				picked = e.Opts[i]
				e.Val = picked.Value
				continue
			}
			e.Opts[i].Selected = false
		}
	}); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s has no option %q: %w", e.Name, want, browser.ErrOptionNotFound)
	}
	e.s.mu.Lock()
	hook := e.OnSelect
	e.s.mu.Unlock()
	if hook != nil {
		hook(e, picked)
	}
	return nil
}

func (e *Element) Options(ctx context.Context) (opts []browser.Option, err error) {
	err = e.read(ctx, func() { opts = append([]browser.Option(nil), e.Opts...) })
	return
}

// Snapshot returns a field read under the session lock, for assertions.
func Snapshot[T any](e *Element, fn func(e *Element) T) T {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return fn(e)
}
