// internal/scenario/runner.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/autofill"
	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/fixtures"
)

// Status of a scenario or step.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

const (
	defaultDiagnosticsTimeout = 15 * time.Second
	defaultReleaseTimeout     = 15 * time.Second
)

// Step is one named action of a scenario.
type Step struct {
	Name string
	Run  func(ctx context.Context, sc *Context) error
}

// Scenario is an ordered list of steps run against one session.
type Scenario struct {
	Name        string
	Description string
	Steps       []Step
}

// Opener acquires the browser session for one scenario run.
type Opener interface {
	Open(ctx context.Context) (browser.Session, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (browser.Session, error)

func (f OpenerFunc) Open(ctx context.Context) (browser.Session, error) { return f(ctx) }

// Attachment is a diagnostic artifact captured after a failed step.
type Attachment struct {
	Scenario  string
	RunID     string
	Step      string
	Name      string
	MediaType string
	Data      []byte
}

// Attacher stores attachments and returns where each one went.
type Attacher interface {
	Attach(ctx context.Context, a Attachment) (string, error)
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario    string            `json:"scenario"`
	RunID       string            `json:"run_id"`
	Status      Status            `json:"status"`
	Duration    time.Duration     `json:"duration"`
	Steps       []StepResult      `json:"steps"`
	Autofill    []autofill.Result `json:"autofill,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	Error       string            `json:"error,omitempty"`

	// Err is the failure behind Error, for errors.As by callers.
	Err error `json:"-"`
}

// Passed reports whether every step passed.
func (r Result) Passed() bool { return r.Status == StatusPassed }

// Runner runs scenarios, one fresh session each.
type Runner struct {
	opener   Opener
	attacher Attacher
	settings Settings
	logger   *zap.Logger

	diagnosticsTimeout time.Duration
	releaseTimeout     time.Duration
	newUser            func() fixtures.User
}

// NewRunner creates a Runner. attacher may be nil to drop diagnostics.
func NewRunner(opener Opener, attacher Attacher, settings Settings, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		opener:             opener,
		attacher:           attacher,
		settings:           settings,
		logger:             logger.Named("scenario"),
		diagnosticsTimeout: defaultDiagnosticsTimeout,
		releaseTimeout:     defaultReleaseTimeout,
		newUser:            fixtures.NewUser,
	}
}

// Run executes sc. The session is released exactly once whatever happens,
// and release failures are logged rather than returned.
func (r *Runner) Run(ctx context.Context, sc Scenario) (res Result) {
	runID := uuid.NewString()
	log := r.logger.With(zap.String("scenario", sc.Name), zap.String("run_id", runID))
	res = Result{Scenario: sc.Name, RunID: runID, Status: StatusPassed}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	// 1. Acquire.
	session, err := r.opener.Open(ctx)
	if err != nil {
		log.Error("Could not open a browser session.", zap.Error(err))
		res.fail(fmt.Errorf("open session: %w", err))
		for _, st := range sc.Steps {
			res.Steps = append(res.Steps, StepResult{Name: st.Name, Status: StatusSkipped})
		}
		return res
	}
	defer r.release(ctx, session, log)

	sctx := &Context{
		RunID:    runID,
		Session:  session,
		Logger:   log,
		Settings: r.settings,
		User:     r.newUser(),
		Data:     make(map[string]any),
	}

	// 2. Steps in order; everything after the first failure is skipped.
	log.Info("Scenario started.", zap.Int("steps", len(sc.Steps)))
	for _, st := range sc.Steps {
		if res.Status != StatusPassed {
			res.Steps = append(res.Steps, StepResult{Name: st.Name, Status: StatusSkipped})
			continue
		}
		stepStart := time.Now()
		err := runStep(ctx, st, sctx)
		sr := StepResult{Name: st.Name, Status: StatusPassed, Duration: time.Since(stepStart)}
		if err != nil {
			sr.Status, sr.Error = StatusFailed, err.Error()
			log.Error("Step failed.", zap.String("step", st.Name), zap.Error(err))
			res.fail(fmt.Errorf("step %q: %w", st.Name, err))
			res.Attachments = r.captureDiagnostics(ctx, sc.Name, runID, st.Name, session, log)
		} else {
			log.Debug("Step passed.", zap.String("step", st.Name), zap.Duration("took", sr.Duration))
		}
		res.Steps = append(res.Steps, sr)
	}

	res.Autofill = sctx.Autofill
	log.Info("Scenario finished.", zap.String("status", string(res.Status)))
	return res
}

func (r *Result) fail(err error) {
	r.Status = StatusFailed
	r.Err = err
	r.Error = err.Error()
}

func runStep(ctx context.Context, st Step, sc *Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step panicked: %v", p)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}
	return st.Run(ctx, sc)
}

// captureDiagnostics attaches a screenshot and the page source. It runs on a
// context detached from the step's cancellation, and each capture is best
// effort.
func (r *Runner) captureDiagnostics(ctx context.Context, scenario, runID, step string, s browser.Session, log *zap.Logger) []string {
	if r.attacher == nil {
		return nil
	}
	dctx, cancel := context.WithTimeout(browser.Detach(ctx), r.diagnosticsTimeout)
	defer cancel()

	var out []string
	attach := func(name, mediaType string, data []byte) {
		where, err := r.attacher.Attach(dctx, Attachment{
			Scenario: scenario, RunID: runID, Step: step,
			Name: name, MediaType: mediaType, Data: data,
		})
		if err != nil {
			log.Warn("Could not store attachment.", zap.String("name", name), zap.Error(err))
			return
		}
		out = append(out, where)
	}

	if png, err := s.Screenshot(dctx); err != nil {
		log.Warn("Failure screenshot unavailable.", zap.Error(err))
	} else {
		attach("Failure screenshot", "image/png", png)
	}
	if src, err := s.DocumentSource(dctx); err != nil {
		log.Warn("Page source unavailable.", zap.Error(err))
	} else {
		attach("Page source", "text/plain", []byte(src))
	}
	return out
}

func (r *Runner) release(ctx context.Context, s browser.Session, log *zap.Logger) {
	cctx, cancel := context.WithTimeout(browser.Detach(ctx), r.releaseTimeout)
	defer cancel()
	if err := s.Close(cctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Browser session did not close cleanly.", zap.Error(err))
	}
}

// RunAll runs each scenario in turn, each with its own session.
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		results = append(results, r.Run(ctx, sc))
	}
	return results
}
