// internal/wait/wait.go
// Package wait holds every synchronization primitive used against the live
// document. All of them are deadline-bounded polls; nothing here sleeps for a
// fixed amount of time and nothing here mutates the page, except the explicitly
// best-effort TryClickIfPresent.
//
// There are two categories of primitive:
//   - strict (Visible, Interactable, Until): an unsatisfied state keeps polling,
//     any driver error propagates immediately, the deadline yields *TimeoutError.
//   - tolerant (Fluent, TryClickIfPresent): named transient errors are retried
//     (Fluent) or everything is swallowed (TryClickIfPresent).
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
)

// Default timings.
const (
	DefaultStructuralTimeout = 10 * time.Second
	DefaultFluentTimeout     = 6 * time.Second
	DefaultPollInterval      = 200 * time.Millisecond
	DefaultOptionalTimeout   = 3 * time.Second
)

// Spec configures a fluent wait.
type Spec struct {
	Timeout      time.Duration
	PollInterval time.Duration
	// Ignore lists the error kinds (matched with errors.Is) that are retried.
	Ignore []error
}

// DefaultFluentSpec ignores not-found and stale failures.
func DefaultFluentSpec() Spec {
	return Spec{
		Timeout:      DefaultFluentTimeout,
		PollInterval: DefaultPollInterval,
		Ignore:       []error{browser.ErrNotFound, browser.ErrStale},
	}
}

// WithTiming returns a copy of s with the given timeout and poll interval.
func (s Spec) WithTiming(timeout, poll time.Duration) Spec {
	s.Timeout = timeout
	s.PollInterval = poll
	return s
}

func (s Spec) ignores(err error) bool {
	for _, kind := range s.Ignore {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Condition is re-evaluated on every poll tick. It must only read state. The
// bool reports whether the value is the one being waited for.
type Condition[T any] func(ctx context.Context) (T, bool, error)

// Engine runs waits against one session.
type Engine struct {
	session browser.Session
	logger  *zap.Logger
	poll    time.Duration
}

// New creates an engine bound to the scenario's session.
func New(session browser.Session, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		session: session,
		logger:  logger.Named("wait"),
		poll:    DefaultPollInterval,
	}
}

// WithPollInterval returns a copy of the engine using d between strict-wait probes.
func (e *Engine) WithPollInterval(d time.Duration) *Engine {
	cp := *e
	if d > 0 {
		cp.poll = d
	}
	return &cp
}

// Session returns the session the engine polls.
func (e *Engine) Session() browser.Session { return e.session }

// probe is one evaluation inside a poll loop. done stops the loop with the
// returned error (nil for success); state describes an unsatisfied
// observation; transient is a swallowed error kept for the timeout report.
type probe func(ctx context.Context) (done bool, state string, transient, err error)

// poll drives a probe until it reports done, the deadline elapses or ctx is cancelled.
func poll(ctx context.Context, target string, timeout, interval time.Duration, p probe) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := time.Now()
	deadline := start.Add(timeout)

	// Probes may overrun the deadline by at most one interval; a hung driver
	// call must not hold the caller hostage.
	probeCtx, cancel := context.WithDeadline(ctx, deadline.Add(interval))
	defer cancel()

	var (
		lastState     string
		lastTransient error
	)
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		done, state, transient, err := p(probeCtx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if probeCtx.Err() != nil {
				return &TimeoutError{Target: target, Timeout: timeout, Elapsed: time.Since(start), LastState: lastState, Cause: lastTransient}
			}
			return err
		}
		if done {
			return nil
		}
		if state != "" {
			lastState = state
		}
		if transient != nil {
			lastTransient = transient
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return &TimeoutError{Target: target, Timeout: timeout, Elapsed: time.Since(start), LastState: lastState, Cause: lastTransient}
		}
		// Clamp the last sleep to the deadline so the final probe runs at T.
		timer.Reset(min(interval, remaining))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Visible waits until the first element matching loc is attached, rendered and
// not hidden, and returns it. No match yet is an unsatisfied state; a driver
// error propagates at once.
func (e *Engine) Visible(ctx context.Context, loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return e.waitElement(ctx, loc, timeout, false)
}

// Interactable is Visible plus enabled and not obscured. Use it before every
// mandatory click or type.
func (e *Engine) Interactable(ctx context.Context, loc browser.Locator, timeout time.Duration) (browser.Element, error) {
	return e.waitElement(ctx, loc, timeout, true)
}

func (e *Engine) waitElement(ctx context.Context, loc browser.Locator, timeout time.Duration, interactable bool) (browser.Element, error) {
	kind := "visible"
	if interactable {
		kind = "interactable"
	}
	log := e.logger.With(zap.Stringer("locator", loc), zap.String("until", kind), zap.Duration("timeout", timeout))
	log.Debug("Waiting for element.")

	var found browser.Element
	err := poll(ctx, fmt.Sprintf("%s to be %s", loc, kind), timeout, e.poll, func(ctx context.Context) (bool, string, error, error) {
		els, err := e.session.Find(ctx, loc)
		if err != nil {
			return false, "", nil, fmt.Errorf("find %s: %w", loc, err)
		}
		if len(els) == 0 {
			return false, "not present", nil, nil
		}
		el := els[0]
		state, err := elementState(ctx, el, interactable)
		if err != nil {
			return false, "", nil, fmt.Errorf("inspect %s: %w", loc, err)
		}
		if state != "" {
			return false, state, nil, nil
		}
		found = el
		return true, "", nil, nil
	})
	if err != nil {
		log.Debug("Element wait failed.", zap.Error(err))
		return nil, err
	}
	return found, nil
}

// elementState returns "" when the element satisfies the wait, otherwise a
// short description of why it does not.
func elementState(ctx context.Context, el browser.Element, interactable bool) (string, error) {
	visible, err := el.IsVisible(ctx)
	if err != nil {
		return "", err
	}
	if !visible {
		return "present but hidden", nil
	}
	if !interactable {
		return "", nil
	}
	enabled, err := el.IsEnabled(ctx)
	if err != nil {
		return "", err
	}
	if !enabled {
		return "visible but disabled", nil
	}
	hit, err := el.ReceivesPointer(ctx)
	if err != nil {
		return "", err
	}
	if !hit {
		return "visible but obscured", nil
	}
	return "", nil
}

// Until polls a boolean condition over non-element state (URL changes, flags).
// Errors from cond propagate immediately.
func (e *Engine) Until(ctx context.Context, timeout time.Duration, what string, cond func(ctx context.Context) (bool, error)) error {
	return poll(ctx, what, timeout, e.poll, func(ctx context.Context) (bool, string, error, error) {
		ok, err := cond(ctx)
		if err != nil {
			return false, "", nil, err
		}
		return ok, "condition false", nil, nil
	})
}

// Fluent re-evaluates cond every spec.PollInterval until it returns a truthy
// value. Errors listed in spec.Ignore are retried; any other error is returned
// on first occurrence. After the deadline it returns *TimeoutError carrying the
// last swallowed error.
func Fluent[T any](ctx context.Context, e *Engine, spec Spec, what string, cond Condition[T]) (T, error) {
	var result T
	err := poll(ctx, what, spec.Timeout, spec.PollInterval, func(ctx context.Context) (bool, string, error, error) {
		v, ok, err := cond(ctx)
		if err != nil {
			if spec.ignores(err) {
				e.logger.Debug("Fluent wait retrying after transient error.", zap.String("what", what), zap.Error(err))
				return false, "transient error", err, nil
			}
			return false, "", nil, err
		}
		if !ok {
			return false, "not satisfied", nil, nil
		}
		result = v
		return true, "", nil, nil
	})
	return result, err
}

// TryClickIfPresent clicks loc if it becomes visible within timeout. Every
// failure, including the timeout, is swallowed. Only use it for optional UI
// whose absence is a valid outcome. It reports whether a click landed.
func (e *Engine) TryClickIfPresent(ctx context.Context, loc browser.Locator, timeout time.Duration) bool {
	el, err := e.Visible(ctx, loc, timeout)
	if err != nil {
		e.logger.Debug("Optional element not present; skipping click.", zap.Stringer("locator", loc), zap.Error(err))
		return false
	}
	if err := el.Click(ctx); err != nil {
		e.logger.Debug("Optional click failed; ignoring.", zap.Stringer("locator", loc), zap.Error(err))
		return false
	}
	return true
}
