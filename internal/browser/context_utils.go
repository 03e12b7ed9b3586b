// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext derives a context from ctx1 that is also canceled when ctx2
// is. Values come from ctx1 only. For chromedp, ctx1 is the tab context that
// carries the CDP target and ctx2 carries the operation's deadline.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(ctx1)
	if ctx2.Done() == nil {
		return combined, cancel
	}
	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// valueOnlyContext keeps its parent's values but drops its deadline and
// cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{} { return nil }
func (valueOnlyContext) Err() error { return nil }

// Detach returns a context carrying ctx's values that is not canceled with
// ctx. Failure diagnostics use it so they still run after a step's deadline.
// Do not hand it to chromedp.NewExecAllocator or chromedp.NewContext.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
