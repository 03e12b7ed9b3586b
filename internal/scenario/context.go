// internal/scenario/context.go
// Package scenario runs registration scenarios: ordered steps sharing one
// browser session, with failure diagnostics and a guaranteed teardown.
package scenario

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/autofill"
	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/fixtures"
	"github.com/xkilldash9x/regwizard/internal/pages"
)

// Settings are the per-run inputs every scenario reads.
type Settings struct {
	BaseURL  string
	Password string
	Address  fixtures.Address
	Timeouts pages.Timeouts
	// PickIndex is the suggestion picked when the address filter matches nothing.
	PickIndex int
}

// Context is the state of one scenario run. Each run gets its own.
type Context struct {
	RunID    string
	Session  browser.Session
	Logger   *zap.Logger
	Settings Settings
	User     fixtures.User
	// Autofill holds the field comparisons of the address step, if it ran.
	Autofill []autofill.Result
	// Data is a scratchpad for values steps hand to later steps.
	Data map[string]any
}

func (c *Context) Home() *pages.Home {
	return pages.NewHome(c.Session, c.Logger, c.Settings.Timeouts)
}

func (c *Context) Step1() *pages.Step1 {
	return pages.NewStep1(c.Session, c.Logger, c.Settings.Timeouts)
}

func (c *Context) Step2() *pages.Step2 {
	return pages.NewStep2(c.Session, c.Logger, c.Settings.Timeouts)
}
