// internal/wait/wait_test.go
package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/browser/browsertest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testPoll = 20 * time.Millisecond

var target = browser.ByCSS("[data-cy='registerBtn']")

func newEngine(t *testing.T) (*Engine, *browsertest.Session) {
	t.Helper()
	s := browsertest.NewSession()
	t.Cleanup(s.Stop)
	return New(s, zaptest.NewLogger(t)).WithPollInterval(testPoll), s
}

func TestVisible(t *testing.T) {
	t.Run("ObservedWithinOnePollOfAppearing", func(t *testing.T) {
		eng, s := newEngine(t)
		el := s.NewElement("join")
		el.Visible = false
		s.Put(target, el)

		appearAt := 150 * time.Millisecond
		s.After(appearAt, func() { el.Visible = true })

		start := time.Now()
		got, err := eng.Visible(context.Background(), target, 2*time.Second)
		require.NoError(t, err)
		assert.Same(t, el, got)

		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, appearAt)
		// One poll of staleness plus scheduling slack.
		assert.Less(t, elapsed, appearAt+testPoll+100*time.Millisecond)
	})

	t.Run("TimeoutNeverBeforeDeadline", func(t *testing.T) {
		eng, s := newEngine(t)
		el := s.NewElement("join")
		el.Visible = false
		s.Put(target, el)

		timeout := 120 * time.Millisecond
		start := time.Now()
		_, err := eng.Visible(context.Background(), target, timeout)
		elapsed := time.Since(start)

		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		assert.GreaterOrEqual(t, elapsed, timeout)
		assert.GreaterOrEqual(t, te.Elapsed, timeout)
		assert.Equal(t, "present but hidden", te.LastState)
		assert.Contains(t, te.Error(), target.String())
	})

	t.Run("AbsentIsNotAnError", func(t *testing.T) {
		eng, _ := newEngine(t)
		_, err := eng.Visible(context.Background(), target, 60*time.Millisecond)

		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "not present", te.LastState)
	})

	t.Run("DriverErrorPropagatesImmediately", func(t *testing.T) {
		eng, s := newEngine(t)
		s.FailFind(target, browser.ErrStale)

		start := time.Now()
		_, err := eng.Visible(context.Background(), target, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, browser.ErrStale)
		var te *TimeoutError
		assert.False(t, errors.As(err, &te), "strict waits must not convert driver errors into timeouts")
		assert.Less(t, time.Since(start), 200*time.Millisecond)
	})

	t.Run("FirstOfManyIsReturned", func(t *testing.T) {
		eng, s := newEngine(t)
		first, second := s.NewElement("first"), s.NewElement("second")
		s.Put(target, first, second)

		got, err := eng.Visible(context.Background(), target, time.Second)
		require.NoError(t, err)
		assert.Same(t, first, got)
	})
}

func TestInteractable(t *testing.T) {
	eng, s := newEngine(t)
	el := s.NewElement("continue")
	el.Enabled = false
	el.Obscured = true
	s.Put(target, el)

	s.After(60*time.Millisecond, func() { el.Enabled = true })
	s.After(120*time.Millisecond, func() { el.Obscured = false })

	got, err := eng.Interactable(context.Background(), target, 2*time.Second)
	require.NoError(t, err)
	assert.Same(t, el, got)

	t.Run("ReportsObscuredState", func(t *testing.T) {
		eng, s := newEngine(t)
		el := s.NewElement("continue")
		el.Obscured = true
		s.Put(target, el)

		_, err := eng.Interactable(context.Background(), target, 80*time.Millisecond)
		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "visible but obscured", te.LastState)
	})
}

func TestFluent(t *testing.T) {
	spec := DefaultFluentSpec().WithTiming(time.Second, testPoll)

	t.Run("SwallowsTransientErrorsWhileRetriesRemain", func(t *testing.T) {
		eng, _ := newEngine(t)
		calls := 0
		got, err := Fluent(context.Background(), eng, spec, "list populated", func(ctx context.Context) (int, bool, error) {
			calls++
			switch calls {
			case 1:
				return 0, false, browser.ErrNotFound
			case 2:
				return 0, false, browser.ErrStale
			case 3:
				return 0, false, nil
			}
			return 3, true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, got)
		assert.Equal(t, 4, calls)
	})

	t.Run("PropagatesOtherErrorsOnFirstOccurrence", func(t *testing.T) {
		eng, _ := newEngine(t)
		boom := errors.New("javascript exception")
		calls := 0
		_, err := Fluent(context.Background(), eng, spec, "boom", func(ctx context.Context) (bool, bool, error) {
			calls++
			return false, false, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("TimeoutCarriesLastTransientError", func(t *testing.T) {
		eng, _ := newEngine(t)
		short := spec.WithTiming(100*time.Millisecond, testPoll)
		start := time.Now()
		_, err := Fluent(context.Background(), eng, short, "never", func(ctx context.Context) (bool, bool, error) {
			return false, false, browser.ErrStale
		})
		var te *TimeoutError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, browser.ErrStale)
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("CustomIgnoreSet", func(t *testing.T) {
		eng, _ := newEngine(t)
		custom := Spec{Timeout: 100 * time.Millisecond, PollInterval: testPoll}
		_, err := Fluent(context.Background(), eng, custom, "strict", func(ctx context.Context) (bool, bool, error) {
			return false, false, browser.ErrNotFound
		})
		var te *TimeoutError
		assert.False(t, errors.As(err, &te))
		assert.ErrorIs(t, err, browser.ErrNotFound)
	})
}

func TestUntil(t *testing.T) {
	eng, _ := newEngine(t)
	flip := time.Now().Add(80 * time.Millisecond)
	err := eng.Until(context.Background(), time.Second, "flag set", func(ctx context.Context) (bool, error) {
		return time.Now().After(flip), nil
	})
	require.NoError(t, err)

	err = eng.Until(context.Background(), 50*time.Millisecond, "never", func(ctx context.Context) (bool, error) {
		return false, nil
	})
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "never", te.Target)
}

func TestTryClickIfPresent(t *testing.T) {
	t.Run("AbsentIsSwallowed", func(t *testing.T) {
		eng, _ := newEngine(t)
		assert.False(t, eng.TryClickIfPresent(context.Background(), target, 50*time.Millisecond))
	})

	t.Run("ClickFailureIsSwallowed", func(t *testing.T) {
		eng, s := newEngine(t)
		el := s.NewElement("banner")
		el.ClickErr = errors.New("detached mid-click")
		s.Put(target, el)
		assert.False(t, eng.TryClickIfPresent(context.Background(), target, 50*time.Millisecond))
	})

	t.Run("ClicksWhenPresent", func(t *testing.T) {
		eng, s := newEngine(t)
		el := s.NewElement("banner")
		s.Put(target, el)
		assert.True(t, eng.TryClickIfPresent(context.Background(), target, 50*time.Millisecond))
		assert.Equal(t, 1, el.Clicks)
	})
}

func TestCancellation(t *testing.T) {
	eng, _ := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(40*time.Millisecond, cancel)

	_, err := eng.Visible(ctx, target, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
