// internal/pages/step1.go
package pages

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/fixtures"
	"github.com/xkilldash9x/regwizard/internal/pages/selectors"
)

// Language codes offered by the language select.
const (
	LanguageEnglish = "EN"
	LanguageFrench  = "FR"
)

// LanguageCode maps "english"/"en" and "french"/"fr", in any case, to the
// select's option values. Anything else falls back to English.
func LanguageCode(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "french", "fr":
		return LanguageFrench
	default:
		return LanguageEnglish
	}
}

// Step1 is the mandatory personal-details form.
type Step1 struct {
	page
}

// NewStep1 binds the Step 1 page object to the scenario's session.
func NewStep1(session browser.Session, logger *zap.Logger, t Timeouts) *Step1 {
	return &Step1{page: newPage(session, logger, t, "pages.step1")}
}

// WaitForLoaded requires the step title, the form root and the first input to
// be visible. The title animates in before the inputs attach, so one signal is
// not enough.
func (s *Step1) WaitForLoaded(ctx context.Context) error {
	s.logger.Info("Waiting for Step 1.")
	for _, loc := range []browser.Locator{selectors.Step1Title, selectors.Step1Form, selectors.UsernameInput} {
		if _, err := s.wait.Visible(ctx, loc, s.timeouts.Structural); err != nil {
			return err
		}
	}
	return nil
}

// FillMandatory fills every mandatory field. The date-of-birth markup is
// checked before anything is typed, so a layout change fails fast with a
// *StructuralError and leaves the form untouched.
func (s *Step1) FillMandatory(ctx context.Context, u fixtures.User, password string) error {
	s.logger.Info("Filling mandatory fields.", zap.String("username", u.Username))

	// 1. Structure guard.
	if _, err := s.dobControls(ctx); err != nil {
		return err
	}

	// 2. Text fields.
	fields := []struct {
		loc   browser.Locator
		value string
	}{
		{selectors.UsernameInput, u.Username},
		{selectors.PasswordInput, password},
		{selectors.ConfirmInput, password},
		{selectors.EmailInput, u.Email},
		{selectors.FirstNameInput, u.FirstName},
		{selectors.LastNameInput, u.LastName},
	}
	for _, f := range fields {
		if err := s.typeInto(ctx, f.loc, f.value); err != nil {
			return err
		}
	}

	// 3. Phone is absent in some layout variants.
	filled, err := s.typeIfPresent(ctx, selectors.PhoneInput, u.Phone)
	if err != nil {
		return err
	}
	if !filled {
		s.logger.Debug("Phone field not present; skipping.")
	}

	// 4. Date of birth, re-resolved since typing may have re-rendered the form.
	selects, err := s.dobControls(ctx)
	if err != nil {
		return err
	}
	dob := []string{fixtures.DOBMonthShort(u.DOB), fixtures.DOBDay(u.DOB), fixtures.DOBYear(u.DOB)}
	for i, text := range dob {
		if err := selects[i].SelectByVisibleText(ctx, text); err != nil {
			return fmt.Errorf("select date of birth part %d (%q): %w", i, text, err)
		}
	}

	// 5. Language.
	lang, err := s.wait.Visible(ctx, selectors.LanguageSelect, s.timeouts.Short)
	if err != nil {
		return err
	}
	if err := lang.SelectByValue(ctx, LanguageCode(u.Language)); err != nil {
		return fmt.Errorf("select language: %w", err)
	}

	// 6. Terms.
	return s.setChecked(ctx, selectors.TermsCheckbox, true)
}

func (s *Step1) dobControls(ctx context.Context) ([]browser.Element, error) {
	selects, err := s.session.Find(ctx, selectors.DOBSelects)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selectors.DOBSelects, err)
	}
	if len(selects) != selectors.DOBSelectCount {
		return nil, &StructuralError{
			Locator:  selectors.DOBSelects,
			Expected: selectors.DOBSelectCount,
			Actual:   len(selects),
			Context:  "date of birth selects",
		}
	}
	return selects, nil
}

// SetTermsAccepted sets the terms checkbox. It clicks at most once.
func (s *Step1) SetTermsAccepted(ctx context.Context, desired bool) error {
	return s.setChecked(ctx, selectors.TermsCheckbox, desired)
}

// FillOptionalPromo types the user's promo code into the manual-entry field
// when both exist. The promo dropdown is left alone.
func (s *Step1) FillOptionalPromo(ctx context.Context, u fixtures.User) error {
	if els, err := s.session.Find(ctx, selectors.PromoDropdown); err == nil && len(els) > 0 {
		s.logger.Debug("Promo dropdown present; leaving it unselected.")
	}
	if u.PromoCode == "" {
		return nil
	}
	filled, err := s.typeIfPresent(ctx, selectors.PromoManualInput, u.PromoCode)
	if err != nil {
		return err
	}
	s.logger.Debug("Promo code handled.", zap.Bool("filled", filled))
	return nil
}

// ContinueNext waits for Continue to become enabled, natively and by
// attribute, and clicks it.
func (s *Step1) ContinueNext(ctx context.Context) error {
	s.logger.Info("Clicking Continue.")
	return s.clickWhenEnabled(ctx, selectors.ContinueButton)
}

// IsContinueEnabled reports whether Continue is enabled both natively and by attribute.
func (s *Step1) IsContinueEnabled(ctx context.Context) (bool, error) {
	return s.isEnabled(ctx, selectors.ContinueButton)
}
