// internal/pages/step2.go
package pages

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/autofill"
	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/fixtures"
	"github.com/xkilldash9x/regwizard/internal/pages/selectors"
)

// Step2 is the address step.
type Step2 struct {
	page
	resolver *AddressResolver
}

// NewStep2 binds the Step 2 page object to the scenario's session.
func NewStep2(session browser.Session, logger *zap.Logger, t Timeouts) *Step2 {
	return &Step2{
		page:     newPage(session, logger, t, "pages.step2"),
		resolver: NewAddressResolver(session, logger, t),
	}
}

// WaitForLoaded only waits for the submit control. The rest of this screen
// populates asynchronously.
func (s *Step2) WaitForLoaded(ctx context.Context) error {
	s.logger.Info("Waiting for Step 2.")
	_, err := s.wait.Visible(ctx, selectors.SubmitButton, s.timeouts.Structural)
	return err
}

// SearchAndPickAddress searches the autocomplete and picks a suggestion. See
// AddressResolver.SearchAndPick.
func (s *Step2) SearchAndPickAddress(ctx context.Context, query, filter string, index int) (AddressSuggestion, error) {
	return s.resolver.SearchAndPick(ctx, query, filter, index)
}

// Suggestions returns the suggestions currently listed.
func (s *Step2) Suggestions(ctx context.Context) ([]AddressSuggestion, error) {
	return s.resolver.Suggestions(ctx)
}

// ReadAutofill reads the raw state of the autofilled fields.
func (s *Step2) ReadAutofill(ctx context.Context) (autofill.Snapshot, error) {
	var snap autofill.Snapshot
	for _, f := range []struct {
		loc browser.Locator
		dst *string
	}{
		{selectors.Line1Input, &snap.Line1},
		{selectors.CityInput, &snap.City},
		{selectors.PostalInput, &snap.Postal},
	} {
		el, err := s.first(ctx, f.loc)
		if err != nil {
			return snap, err
		}
		if *f.dst, err = el.Value(ctx); err != nil {
			return snap, fmt.Errorf("read %s: %w", f.loc, err)
		}
	}

	var err error
	if snap.Province, err = s.selectState(ctx, selectors.ProvinceSelect); err != nil {
		return snap, err
	}
	if snap.Country, err = s.selectState(ctx, selectors.CountrySelect); err != nil {
		return snap, err
	}
	return snap, nil
}

func (s *Step2) selectState(ctx context.Context, loc browser.Locator) (autofill.SelectState, error) {
	var st autofill.SelectState
	el, err := s.first(ctx, loc)
	if err != nil {
		return st, err
	}
	opts, err := el.Options(ctx)
	if err != nil {
		return st, fmt.Errorf("read options of %s: %w", loc, err)
	}
	for _, o := range opts {
		st.Values = append(st.Values, o.Value)
		if o.Selected && st.Selected == "" {
			st.Selected = o.Value
		}
	}
	return st, nil
}

// AssertAutofilled compares the autofilled fields with want on normalized
// forms. It returns every field result and an *autofill.AssertionError for
// the first mismatch.
func (s *Step2) AssertAutofilled(ctx context.Context, want fixtures.Address) ([]autofill.Result, error) {
	snap, err := s.ReadAutofill(ctx)
	if err != nil {
		return nil, err
	}
	results := autofill.Validate(want.Expected(), snap)
	for _, r := range results {
		if !r.Passed {
			s.logger.Warn("Autofilled field mismatch.",
				zap.String("field", r.Field), zap.String("expected", r.ExpectedNormalized), zap.String("actual", r.ActualNormalized))
		}
	}
	return results, autofill.FirstFailure(results)
}

// SetMarketingOptIn sets the marketing consent checkbox. It clicks at most once.
func (s *Step2) SetMarketingOptIn(ctx context.Context, desired bool) error {
	return s.setChecked(ctx, selectors.MarketingCheckbox, desired)
}

// IsSubmitEnabled reports whether submit is enabled both natively and by attribute.
func (s *Step2) IsSubmitEnabled(ctx context.Context) (bool, error) {
	return s.isEnabled(ctx, selectors.SubmitButton)
}

// Submit waits for submit to become enabled, natively and by attribute, and
// clicks it.
func (s *Step2) Submit(ctx context.Context) error {
	s.logger.Info("Submitting registration.")
	return s.clickWhenEnabled(ctx, selectors.SubmitButton)
}
