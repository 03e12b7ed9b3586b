// internal/browser/pwdriver/element.go
package pwdriver

import (
	"context"
	"fmt"
	"slices"

	json "github.com/json-iterator/go"
	pw "github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/browser/jsscript"
)

type element struct {
	s *Session
	h pw.ElementHandle
}

var _ browser.Element = (*element)(nil)

// call evaluates the function declaration fn with the element bound to `this`.
func (e *element) call(ctx context.Context, fn string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := e.h.Evaluate(fmt.Sprintf("el => (%s).call(el)", jsscript.Wrap(fn)))
	if err != nil {
		return classify(err)
	}
	// Evaluate hands back generic JSON values; round-trip them into the result shape.
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode script result: %w", err)
	}
	var r jsscript.Result
	if err := json.Unmarshal(b, &r); err != nil {
		return fmt.Errorf("decode script result: %w", err)
	}
	if r.Stale {
		return browser.ErrStale
	}
	if out == nil || len(r.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Value, out); err != nil {
		return fmt.Errorf("decode script value: %w", err)
	}
	return nil
}

func (e *element) boolCall(ctx context.Context, fn string) (bool, error) {
	var v bool
	err := e.call(ctx, fn, &v)
	return v, err
}

func (e *element) stringCall(ctx context.Context, fn string) (string, error) {
	var v string
	err := e.call(ctx, fn, &v)
	return v, err
}

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	return e.boolCall(ctx, jsscript.IsVisible)
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := e.h.IsEnabled()
	return ok, classify(err)
}

func (e *element) IsSelected(ctx context.Context) (bool, error) {
	return e.boolCall(ctx, jsscript.IsSelected)
}

func (e *element) ReceivesPointer(ctx context.Context) (bool, error) {
	return e.boolCall(ctx, jsscript.ReceivesPointer)
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var v struct {
		OK bool   `json:"ok"`
		V  string `json:"v"`
	}
	if err := e.call(ctx, jsscript.Attribute(name), &v); err != nil {
		return "", false, err
	}
	return v.V, v.OK, nil
}

func (e *element) Value(ctx context.Context) (string, error) {
	return e.stringCall(ctx, jsscript.Value)
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.h.InnerText()
	return text, classify(err)
}

// Click hit-tests before clicking. Playwright would otherwise keep retrying
// an intercepted click until its timeout.
func (e *element) Click(ctx context.Context) error {
	hit, err := e.ReceivesPointer(ctx)
	if err != nil {
		return err
	}
	if !hit {
		return browser.ErrClickIntercepted
	}
	return classify(e.h.Click(pw.ElementHandleClickOptions{Timeout: timeoutMS(ctx, defaultActionTimeout)}))
}

func (e *element) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(e.h.Fill("", pw.ElementHandleFillOptions{Timeout: timeoutMS(ctx, defaultActionTimeout)}))
}

// Type focuses the element and types text through the page keyboard.
func (e *element) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.h.Focus(); err != nil {
		return classify(err)
	}
	return classify(e.s.page.Keyboard().Type(text))
}

func (e *element) SelectByValue(ctx context.Context, value string) error {
	return e.selectOption(ctx, value, false)
}

func (e *element) SelectByVisibleText(ctx context.Context, text string) error {
	return e.selectOption(ctx, text, true)
}

// selectOption checks the option exists first; Playwright would wait for a
// missing option until its timeout.
func (e *element) selectOption(ctx context.Context, want string, byText bool) error {
	opts, err := e.Options(ctx)
	if err != nil {
		return err
	}
	match := func(o browser.Option) bool { return o.Value == want }
	values := pw.SelectOptionValues{Values: &[]string{want}}
	if byText {
		match = func(o browser.Option) bool { return o.Text == want }
		values = pw.SelectOptionValues{Labels: &[]string{want}}
	}
	if !slices.ContainsFunc(opts, match) {
		return fmt.Errorf("option %q: %w", want, browser.ErrOptionNotFound)
	}
	_, err = e.h.SelectOption(values, pw.ElementHandleSelectOptionOptions{Timeout: timeoutMS(ctx, defaultActionTimeout)})
	return classify(err)
}

func (e *element) Options(ctx context.Context) ([]browser.Option, error) {
	var opts []browser.Option
	if err := e.call(ctx, jsscript.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}
