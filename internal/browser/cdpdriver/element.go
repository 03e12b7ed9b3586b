// internal/browser/cdpdriver/element.go
package cdpdriver

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/browser/jsscript"
)

// element is a node found in the tab. Every read resolves the backend node
// afresh, so a replaced node is reported as stale instead of read from a
// cached object.
type element struct {
	s    *Session
	node *cdp.Node
}

var _ browser.Element = (*element)(nil)

// call invokes the function declaration fn with the element as `this` and
// decodes its return value into out when out is non-nil.
func (e *element) call(ctx context.Context, fn string, out any) error {
	return e.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return e.callAction(ctx, fn, out)
	}))
}

// callAction is call for use inside an already running action list.
func (e *element) callAction(ctx context.Context, fn string, out any) error {
	obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(ctx) }()

	res, exc, err := runtime.CallFunctionOn(jsscript.Wrap(fn)).
		WithObjectID(obj.ObjectID).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return classify(err)
	}
	if exc != nil {
		return fmt.Errorf("script exception: %w", exc)
	}

	var r jsscript.Result
	if err := json.Unmarshal([]byte(res.Value), &r); err != nil {
		return fmt.Errorf("decode script result: %w", err)
	}
	if r.Stale {
		return fmt.Errorf("node %d: %w", e.node.BackendNodeID, browser.ErrStale)
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
	return e.boolCall(ctx, jsscript.IsEnabled)
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
	return e.stringCall(ctx, jsscript.Text)
}

// Click dispatches a real mouse click at the element's centre. When another
// element would receive it the click is not sent and ErrClickIntercepted is
// returned.
func (e *element) Click(ctx context.Context) error {
	hit, err := e.ReceivesPointer(ctx)
	if err != nil {
		return err
	}
	if !hit {
		return fmt.Errorf("node %d: %w", e.node.BackendNodeID, browser.ErrClickIntercepted)
	}
	return e.s.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *element) Clear(ctx context.Context) error {
	return e.call(ctx, jsscript.Clear, nil)
}

// Type focuses the element and sends text as key events.
func (e *element) Type(ctx context.Context, text string) error {
	return e.s.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error { return e.callAction(ctx, jsscript.Focus, nil) }),
		chromedp.KeyEvent(text),
	)
}

func (e *element) SelectByValue(ctx context.Context, value string) error {
	return e.selectOption(ctx, value, false)
}

func (e *element) SelectByVisibleText(ctx context.Context, text string) error {
	return e.selectOption(ctx, text, true)
}

func (e *element) selectOption(ctx context.Context, want string, byText bool) error {
	var found bool
	if err := e.call(ctx, jsscript.Select(want, byText), &found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("option %q: %w", want, browser.ErrOptionNotFound)
	}
	return nil
}

func (e *element) Options(ctx context.Context) ([]browser.Option, error) {
	var opts []browser.Option
	if err := e.call(ctx, jsscript.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}
