// internal/scenario/runner_test.go
package scenario

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/regwizard/internal/autofill"
	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/browser/browsertest"
	"github.com/xkilldash9x/regwizard/internal/fixtures"
	"github.com/xkilldash9x/regwizard/internal/pages"
	"github.com/xkilldash9x/regwizard/internal/wait"
)

// recorder is an in-memory Attacher. It notes whether the session was still
// open when each attachment arrived.
type recorder struct {
	mu       sync.Mutex
	session  *browsertest.Session
	got      []Attachment
	openWhen []bool
	err      error
}

func (r *recorder) Attach(_ context.Context, a Attachment) (string, error) {
	open := true
	if r.session != nil {
		r.session.Update(func() { open = r.session.Closed == 0 })
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.got = append(r.got, a)
	r.openWhen = append(r.openWhen, open)
	return a.Step + "/" + a.Name, nil
}

func opener(s browser.Session) Opener {
	return OpenerFunc(func(context.Context) (browser.Session, error) { return s, nil })
}

func closed(s *browsertest.Session) int {
	n := 0
	s.Update(func() { n = s.Closed })
	return n
}

func newRunner(t *testing.T, s browser.Session, att Attacher) *Runner {
	t.Helper()
	return NewRunner(opener(s), att, Settings{BaseURL: "https://example.test/", Address: fixtures.AddressToronto()}, zaptest.NewLogger(t))
}

func TestRun(t *testing.T) {
	t.Run("PassingStepsShareContext", func(t *testing.T) {
		s := browsertest.NewSession()
		rec := &recorder{session: s}
		sc := Scenario{Name: "share", Steps: []Step{
			{Name: "put", Run: func(_ context.Context, sc *Context) error {
				sc.Data["token"] = sc.User.Username
				return nil
			}},
			{Name: "get", Run: func(_ context.Context, sc *Context) error {
				if sc.Data["token"] != sc.User.Username {
					return errors.New("scratchpad lost between steps")
				}
				return nil
			}},
		}}

		res := newRunner(t, s, rec).Run(context.Background(), sc)
		require.True(t, res.Passed(), res.Error)
		assert.Equal(t, "share", res.Scenario)
		assert.NotEmpty(t, res.RunID)
		assert.Positive(t, res.Duration)
		require.Len(t, res.Steps, 2)
		for _, st := range res.Steps {
			assert.Equal(t, StatusPassed, st.Status)
		}
		assert.Empty(t, rec.got)
		assert.Equal(t, 1, closed(s))
	})

	t.Run("FailureAttachesDiagnosticsBeforeRelease", func(t *testing.T) {
		s := browsertest.NewSession()
		rec := &recorder{session: s}
		boom := errors.New("continue never enabled")
		calls := 0
		sc := Scenario{Name: "fails", Steps: []Step{
			{Name: "ok", Run: func(context.Context, *Context) error { return nil }},
			{Name: "boom", Run: func(context.Context, *Context) error { return boom }},
			{Name: "after", Run: func(context.Context, *Context) error { calls++; return nil }},
		}}

		res := newRunner(t, s, rec).Run(context.Background(), sc)
		assert.Equal(t, StatusFailed, res.Status)
		assert.ErrorIs(t, res.Err, boom)
		assert.Contains(t, res.Error, `step "boom"`)
		assert.Zero(t, calls)

		require.Len(t, res.Steps, 3)
		assert.Equal(t, StatusPassed, res.Steps[0].Status)
		assert.Equal(t, StatusFailed, res.Steps[1].Status)
		assert.Equal(t, boom.Error(), res.Steps[1].Error)
		assert.Equal(t, StatusSkipped, res.Steps[2].Status)

		require.Len(t, rec.got, 2)
		assert.Equal(t, "image/png", rec.got[0].MediaType)
		assert.Equal(t, "Failure screenshot", rec.got[0].Name)
		assert.Equal(t, "text/plain", rec.got[1].MediaType)
		assert.Equal(t, "Page source", rec.got[1].Name)
		assert.Equal(t, "boom", rec.got[1].Step)
		assert.Equal(t, res.RunID, rec.got[1].RunID)
		assert.Equal(t, []bool{true, true}, rec.openWhen)
		assert.Equal(t, []string{"boom/Failure screenshot", "boom/Page source"}, res.Attachments)
		assert.Equal(t, 1, closed(s))
	})

	t.Run("DiagnosticsSurviveCanceledStepContext", func(t *testing.T) {
		s := browsertest.NewSession()
		rec := &recorder{session: s}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sc := Scenario{Name: "cancel", Steps: []Step{
			{Name: "cancels", Run: func(ctx context.Context, _ *Context) error {
				cancel()
				return ctx.Err()
			}},
			{Name: "never", Run: func(context.Context, *Context) error { return nil }},
		}}

		res := newRunner(t, s, rec).Run(ctx, sc)
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Len(t, rec.got, 2)
		assert.Equal(t, StatusSkipped, res.Steps[1].Status)
		assert.Equal(t, 1, closed(s))
	})

	t.Run("PanicBecomesFailure", func(t *testing.T) {
		s := browsertest.NewSession()
		sc := Scenario{Name: "panics", Steps: []Step{
			{Name: "panics", Run: func(context.Context, *Context) error { panic("nil element") }},
		}}
		res := newRunner(t, s, nil).Run(context.Background(), sc)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Contains(t, res.Error, "step panicked: nil element")
		assert.Empty(t, res.Attachments)
		assert.Equal(t, 1, closed(s))
	})

	t.Run("OpenFailureSkipsEverything", func(t *testing.T) {
		boom := errors.New("chrome not found")
		r := NewRunner(OpenerFunc(func(context.Context) (browser.Session, error) { return nil, boom }), nil, Settings{}, zaptest.NewLogger(t))
		res := r.Run(context.Background(), Scenario{Name: "x", Steps: []Step{{Name: "a"}, {Name: "b"}}})
		assert.ErrorIs(t, res.Err, boom)
		require.Len(t, res.Steps, 2)
		assert.Equal(t, StatusSkipped, res.Steps[0].Status)
		assert.Equal(t, StatusSkipped, res.Steps[1].Status)
	})

	t.Run("AttachAndCloseErrorsNeverRaise", func(t *testing.T) {
		s := &failingClose{Session: browsertest.NewSession()}
		rec := &recorder{err: errors.New("disk full")}
		sc := Scenario{Name: "teardown", Steps: []Step{
			{Name: "boom", Run: func(context.Context, *Context) error { return errors.New("boom") }},
		}}
		res := newRunner(t, s, rec).Run(context.Background(), sc)
		assert.Equal(t, StatusFailed, res.Status)
		assert.Empty(t, res.Attachments)
		assert.Equal(t, 1, s.closes)
	})
}

type failingClose struct {
	*browsertest.Session
	closes int
}

func (f *failingClose) Close(context.Context) error {
	f.closes++
	return errors.New("browser already gone")
}

func TestRunAll(t *testing.T) {
	var sessions []*browsertest.Session
	r := NewRunner(OpenerFunc(func(context.Context) (browser.Session, error) {
		s := browsertest.NewSession()
		sessions = append(sessions, s)
		return s, nil
	}), nil, Settings{}, zaptest.NewLogger(t))

	ok := Scenario{Name: "ok", Steps: []Step{{Name: "a", Run: func(context.Context, *Context) error { return nil }}}}
	results := r.RunAll(context.Background(), []Scenario{ok, ok})
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, 1, closed(s))
	}
}

func TestCatalogue(t *testing.T) {
	assert.Equal(t, []string{NameMandatoryGuard, NameRegistration}, Names())

	reg, err := Lookup(NameRegistration)
	require.NoError(t, err)
	require.Len(t, reg.Steps, 6)
	assert.Equal(t, "the user is on the home page", reg.Steps[0].Name)
	assert.Equal(t, "they complete Step 2 with a valid address", reg.Steps[5].Name)

	guard, err := Lookup(NameMandatoryGuard)
	require.NoError(t, err)
	require.Len(t, guard.Steps, 5)

	_, err = Lookup("blocklist")
	assert.ErrorContains(t, err, `unknown scenario "blocklist"`)

	assert.Len(t, All(), 2)
}

func TestRegistrationFailsFastOnBlankPage(t *testing.T) {
	s := browsertest.NewSession()
	rec := &recorder{session: s}
	settings := Settings{
		BaseURL:  "https://example.test/",
		Password: fixtures.DefaultPassword,
		Address:  fixtures.AddressSaintRaphael(),
		Timeouts: pages.Timeouts{Structural: 80 * time.Millisecond, PollDefault: 10 * time.Millisecond},
	}
	reg, err := Lookup(NameRegistration)
	require.NoError(t, err)

	res := NewRunner(opener(s), rec, settings, zaptest.NewLogger(t)).Run(context.Background(), reg)

	var te *wait.TimeoutError
	require.ErrorAs(t, res.Err, &te)
	assert.Equal(t, StatusFailed, res.Steps[0].Status)
	for _, st := range res.Steps[1:] {
		assert.Equal(t, StatusSkipped, st.Status)
	}
	assert.Equal(t, []string{"https://example.test/"}, s.NavigatedTo)
	assert.Len(t, rec.got, 2)
	assert.Equal(t, 1, closed(s))
}

func TestAutofillMismatches(t *testing.T) {
	results := autofill.Validate(fixtures.AddressToronto().Expected(), autofill.Snapshot{
		Line1:    "123 Main St",
		City:     "Mississauga",
		Postal:   "M5V 3A8",
		Province: autofill.SelectState{Selected: "ON"},
		Country:  autofill.SelectState{Selected: "CA"},
	})
	bad := AutofillMismatches(results)
	require.Len(t, bad, 1)
	assert.Equal(t, autofill.FieldCity, bad[0].Field)
	assert.Empty(t, AutofillMismatches(nil))
}
