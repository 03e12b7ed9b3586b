// internal/browser/session.go
package browser

import (
	"context"
	"errors"
)

// Driver-level failures. Backends map their native errors onto these so that
// callers can classify them with errors.Is regardless of the driver in use.
var (
	// ErrNotFound means the element (or an element it depends on) is not in the document yet.
	ErrNotFound = errors.New("element not found")
	// ErrStale means a previously found element has been detached or replaced.
	ErrStale = errors.New("element is stale or detached from the document")
	// ErrClickIntercepted means another element (usually an overlay) would receive the click.
	ErrClickIntercepted = errors.New("click intercepted by another element")
	// ErrOptionNotFound means a select control has no option matching the requested value or text.
	ErrOptionNotFound = errors.New("option not found in select")
	// ErrForeignElement means an Element from another backend was passed to a Session.
	ErrForeignElement = errors.New("element does not belong to this session")
)

// Option is one <option> of a select control as seen at read time.
type Option struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// Element is a capability over one found element. It is only valid for the
// document it was found in; once the page replaces the node every method
// returns an error wrapping ErrStale.
type Element interface {
	// IsVisible reports attached, non-zero rendered size and not hidden by style.
	IsVisible(ctx context.Context) (bool, error)
	// IsEnabled reports the native enabled state.
	IsEnabled(ctx context.Context) (bool, error)
	// IsSelected reports the checked/selected state of checkboxes, radios and options.
	IsSelected(ctx context.Context) (bool, error)
	// ReceivesPointer reports whether a pointer event at the element's centre
	// would land on the element or one of its descendants.
	ReceivesPointer(ctx context.Context) (bool, error)
	// Attribute returns the attribute value and whether the attribute is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	// Value returns the live value property of form controls.
	Value(ctx context.Context) (string, error)
	// Text returns the rendered text.
	Text(ctx context.Context) (string, error)

	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	SelectByValue(ctx context.Context, value string) error
	SelectByVisibleText(ctx context.Context, text string) error
	// Options lists the options of a select control.
	Options(ctx context.Context) ([]Option, error)
}

// Session is the single browser session owned by one scenario.
type Session interface {
	ID() string
	Navigate(ctx context.Context, url string) error
	// Find resolves the locator against the current document. It never waits:
	// zero matches is an empty slice, not an error.
	Find(ctx context.Context, loc Locator) ([]Element, error)
	// ExecuteScript calls the JavaScript function declaration fn with the
	// target element bound to `this`, e.g. "function() { this.click(); }".
	ExecuteScript(ctx context.Context, fn string, target Element) error
	Screenshot(ctx context.Context) ([]byte, error)
	DocumentSource(ctx context.Context) (string, error)
	// Close releases the browser resources. It is safe to call more than once.
	Close(ctx context.Context) error
}

// IsTransient reports whether err is one of the lookup failures that indicate
// the document is still settling.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrStale)
}
