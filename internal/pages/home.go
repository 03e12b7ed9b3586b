// internal/pages/home.go
package pages

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/pages/selectors"
)

// Home covers everything before the registration modal opens.
type Home struct {
	page
}

// NewHome binds the home page object to the scenario's session.
func NewHome(session browser.Session, logger *zap.Logger, t Timeouts) *Home {
	return &Home{page: newPage(session, logger, t, "pages.home")}
}

// Open navigates to baseURL and blocks until the page is minimally interactive.
func (h *Home) Open(ctx context.Context, baseURL string) error {
	h.logger.Info("Opening home page.", zap.String("url", baseURL))
	if err := h.session.Navigate(ctx, baseURL); err != nil {
		return fmt.Errorf("navigate to %s: %w", baseURL, err)
	}
	return h.WaitForLoaded(ctx)
}

// WaitForLoaded blocks until the Join call-to-action is visible.
func (h *Home) WaitForLoaded(ctx context.Context) error {
	_, err := h.wait.Visible(ctx, selectors.JoinButton, h.timeouts.Structural)
	return err
}

// DismissJurisdictionPopup clicks "stay on this site" in the jurisdiction
// modal. The modal is mandatory here: if it does not show up in time the
// timeout propagates. Use DismissCookieBanner for UI that may be absent.
func (h *Home) DismissJurisdictionPopup(ctx context.Context) error {
	h.logger.Info("Dismissing jurisdiction popup.")
	return h.click(ctx, selectors.StayOnSiteButton)
}

// DismissCookieBanner accepts the cookie banner if it appears within the
// optional timeout and reports whether it was clicked.
func (h *Home) DismissCookieBanner(ctx context.Context) bool {
	clicked := h.wait.TryClickIfPresent(ctx, selectors.CookieAcceptButton, h.timeouts.Optional)
	h.logger.Debug("Cookie banner handled.", zap.Bool("clicked", clicked))
	return clicked
}

// OpenJoin clicks the Join button.
func (h *Home) OpenJoin(ctx context.Context) error {
	h.logger.Info("Clicking Join button.")
	return h.click(ctx, selectors.JoinButton)
}

// WaitForJoinModal blocks until the join modal's text guard and its stepper
// are both visible. The text guard alone also matches the home page.
func (h *Home) WaitForJoinModal(ctx context.Context) error {
	h.logger.Info("Waiting for Join modal.")
	for _, loc := range []browser.Locator{selectors.JoinModalGuard, selectors.JoinModalStepper} {
		if _, err := h.wait.Visible(ctx, loc, h.timeouts.Structural); err != nil {
			return err
		}
	}
	return nil
}
