// internal/scenario/catalogue.go
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xkilldash9x/regwizard/internal/autofill"
)

// Scenario names.
const (
	NameRegistration   = "registration"
	NameMandatoryGuard = "mandatory-guard"
)

// ErrContinueEnabled reports that Step 1 let the user continue with nothing filled in.
var ErrContinueEnabled = errors.New("continue is enabled on an empty Step 1")

// ErrSubmitDisabled reports that Step 2 kept submit disabled after a valid address.
var ErrSubmitDisabled = errors.New("submit is disabled after completing Step 2")

// Shared preconditions: land on home, clear overlays, open Join.
var background = []Step{
	{Name: "the user is on the home page", Run: func(ctx context.Context, sc *Context) error {
		return sc.Home().Open(ctx, sc.Settings.BaseURL)
	}},
	{Name: "they dismiss any jurisdiction or cookie popups", Run: func(ctx context.Context, sc *Context) error {
		home := sc.Home()
		if err := home.DismissJurisdictionPopup(ctx); err != nil {
			return err
		}
		if home.DismissCookieBanner(ctx) {
			sc.Logger.Debug("Cookie banner dismissed.")
		}
		return nil
	}},
	{Name: "they tap the Join button", Run: func(ctx context.Context, sc *Context) error {
		home := sc.Home()
		if err := home.OpenJoin(ctx); err != nil {
			return err
		}
		return home.WaitForJoinModal(ctx)
	}},
	{Name: "the user is on Join Step 1", Run: func(ctx context.Context, sc *Context) error {
		return sc.Step1().WaitForLoaded(ctx)
	}},
}

func completeStep1(ctx context.Context, sc *Context) error {
	step1 := sc.Step1()
	if err := step1.FillMandatory(ctx, sc.User, sc.Settings.Password); err != nil {
		return err
	}
	if err := step1.FillOptionalPromo(ctx, sc.User); err != nil {
		return err
	}
	if err := step1.ContinueNext(ctx); err != nil {
		return err
	}
	return sc.Step2().WaitForLoaded(ctx)
}

func completeStep2(ctx context.Context, sc *Context) error {
	step2 := sc.Step2()
	addr := sc.Settings.Address

	picked, err := step2.SearchAndPickAddress(ctx, addr.Lookup, addr.Filter, sc.Settings.PickIndex)
	if err != nil {
		return err
	}
	sc.Data["suggestion"] = picked.DisplayText

	results, err := step2.AssertAutofilled(ctx, addr)
	sc.Autofill = results
	if err != nil {
		return err
	}
	if err := step2.SetMarketingOptIn(ctx, false); err != nil {
		return err
	}
	enabled, err := step2.IsSubmitEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return ErrSubmitDisabled
	}
	return step2.Submit(ctx)
}

func continueDisabledWhenEmpty(ctx context.Context, sc *Context) error {
	enabled, err := sc.Step1().IsContinueEnabled(ctx)
	if err != nil {
		return err
	}
	if enabled {
		return ErrContinueEnabled
	}
	return nil
}

func withBackground(steps ...Step) []Step {
	return append(append([]Step(nil), background...), steps...)
}

var catalogue = map[string]Scenario{
	NameRegistration: {
		Name:        NameRegistration,
		Description: "Register with valid details and an autocompleted address.",
		Steps: withBackground(
			Step{Name: "they complete Step 1 with valid details", Run: completeStep1},
			Step{Name: "they complete Step 2 with a valid address", Run: completeStep2},
		),
	},
	NameMandatoryGuard: {
		Name:        NameMandatoryGuard,
		Description: "Continue stays disabled while Step 1 is empty.",
		Steps: withBackground(
			Step{Name: "they attempt to continue without filling any details", Run: continueDisabledWhenEmpty},
		),
	},
}

// Lookup returns the named scenario.
func Lookup(name string) (Scenario, error) {
	sc, ok := catalogue[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q (have %v)", name, Names())
	}
	return sc, nil
}

// Names lists the catalogue, sorted.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for n := range catalogue {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every scenario in name order.
func All() []Scenario {
	out := make([]Scenario, 0, len(catalogue))
	for _, n := range Names() {
		out = append(out, catalogue[n])
	}
	return out
}

// AutofillMismatches filters the failed comparisons out of results.
func AutofillMismatches(results []autofill.Result) []autofill.Result {
	var out []autofill.Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
