// internal/pages/autocomplete.go
package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/pages/selectors"
	"github.com/xkilldash9x/regwizard/internal/wait"
)

// scriptClick is the programmatic click used when a native click is intercepted.
const scriptClick = "function() { this.click(); }"

// AddressSuggestion is one entry of the autocomplete list, scraped fresh on
// every poll. The page replaces the list rather than mutating it, so entries
// are never reused across polls.
type AddressSuggestion struct {
	DisplayText string `json:"display_text"`
	DOMIndex    int    `json:"dom_index"`

	el browser.Element
}

// AddressResolver runs the address-step protocol: search, wait for the
// suggestion list, pick a candidate, click it and wait for the dependent
// fields to be autofilled.
type AddressResolver struct {
	page
}

// NewAddressResolver binds a resolver to the scenario's session.
func NewAddressResolver(session browser.Session, logger *zap.Logger, t Timeouts) *AddressResolver {
	return &AddressResolver{page: newPage(session, logger, t, "pages.autocomplete")}
}

// SearchAndPick types query, picks the first suggestion whose text contains
// filter (case-insensitively) or, failing that, the suggestion at index, and
// returns once line 1, city and postal code are all non-blank.
//
// A list that never appears or stays empty until the fluent deadline, and a
// pick that resolves to no candidate, all yield *NoSuggestionError.
func (r *AddressResolver) SearchAndPick(ctx context.Context, query, filter string, index int) (AddressSuggestion, error) {
	log := r.logger.With(zap.String("query", query), zap.String("filter", filter), zap.Int("index", index))
	noSuggestion := func(offered int, cause error) error {
		return &NoSuggestionError{Query: query, Filter: filter, Index: index, Offered: offered, Cause: cause}
	}

	// 1. Search.
	log.Info("Searching address.")
	if err := r.typeInto(ctx, selectors.AddressInput, query); err != nil {
		return AddressSuggestion{}, err
	}

	// 2. Suggestion container.
	if _, err := r.wait.Visible(ctx, selectors.SuggestionList, r.timeouts.Fluent); err != nil {
		if isTimeout(err) {
			return AddressSuggestion{}, noSuggestion(0, err)
		}
		return AddressSuggestion{}, err
	}

	// 3. Non-empty list.
	spec := wait.DefaultFluentSpec().WithTiming(r.timeouts.Fluent, r.timeouts.PollFast)
	items, err := wait.Fluent(ctx, r.wait, spec, "address suggestions to populate", func(ctx context.Context) ([]AddressSuggestion, bool, error) {
		items, err := r.scrape(ctx)
		return items, len(items) > 0, err
	})
	if err != nil {
		if isTimeout(err) {
			return AddressSuggestion{}, noSuggestion(0, err)
		}
		return AddressSuggestion{}, err
	}

	// 4. Pick.
	chosen, ok := pickSuggestion(items, filter, index)
	if !ok {
		return AddressSuggestion{}, noSuggestion(len(items), nil)
	}
	log.Info("Picking address suggestion.", zap.String("suggestion", chosen.DisplayText), zap.Int("offered", len(items)))

	// 5. Click.
	if err := r.clickSuggestion(ctx, chosen); err != nil {
		return chosen, err
	}

	// 6. Autofill-settle barrier. It holds whichever click landed.
	if err := r.waitAutofilled(ctx); err != nil {
		return chosen, fmt.Errorf("autofill after picking %q: %w", chosen.DisplayText, err)
	}
	return chosen, nil
}

// Suggestions scrapes the suggestion list once without waiting.
func (r *AddressResolver) Suggestions(ctx context.Context) ([]AddressSuggestion, error) {
	return r.scrape(ctx)
}

func (r *AddressResolver) scrape(ctx context.Context) ([]AddressSuggestion, error) {
	els, err := r.session.Find(ctx, selectors.SuggestionItems)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", selectors.SuggestionItems, err)
	}
	out := make([]AddressSuggestion, 0, len(els))
	for i, el := range els {
		text, err := el.Text(ctx)
		if err != nil {
			return nil, fmt.Errorf("read suggestion %d: %w", i, err)
		}
		out = append(out, AddressSuggestion{DisplayText: strings.TrimSpace(text), DOMIndex: i, el: el})
	}
	return out, nil
}

// pickSuggestion prefers the first entry containing filter and falls back to
// the positional index.
func pickSuggestion(items []AddressSuggestion, filter string, index int) (AddressSuggestion, bool) {
	if f := strings.ToLower(strings.TrimSpace(filter)); f != "" {
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.DisplayText), f) {
				return it, true
			}
		}
	}
	if index < 0 || index >= len(items) {
		return AddressSuggestion{}, false
	}
	return items[index], true
}

// clickSuggestion tries a native click first and falls back to a script-level
// click when the native one fails, typically because an overlay intercepts it.
func (r *AddressResolver) clickSuggestion(ctx context.Context, s AddressSuggestion) error {
	err := s.el.Click(ctx)
	if err == nil {
		return nil
	}
	if isContextErr(err) {
		return err
	}
	r.logger.Info("Native click on suggestion failed, falling back to script click.",
		zap.String("suggestion", s.DisplayText), zap.Bool("intercepted", errors.Is(err, browser.ErrClickIntercepted)), zap.Error(err))
	if serr := r.session.ExecuteScript(ctx, scriptClick, s.el); serr != nil {
		return fmt.Errorf("click suggestion %q: native click: %v; script click: %w", s.DisplayText, err, serr)
	}
	return nil
}

func (r *AddressResolver) waitAutofilled(ctx context.Context) error {
	spec := wait.DefaultFluentSpec().WithTiming(r.timeouts.Fluent, r.timeouts.PollSettle)
	_, err := wait.Fluent(ctx, r.wait, spec, "line 1, city and postal code to be autofilled", func(ctx context.Context) (bool, bool, error) {
		for _, loc := range []browser.Locator{selectors.Line1Input, selectors.CityInput, selectors.PostalInput} {
			el, err := r.first(ctx, loc)
			if err != nil {
				return false, false, err
			}
			v, err := el.Value(ctx)
			if err != nil {
				return false, false, fmt.Errorf("read %s: %w", loc, err)
			}
			if strings.TrimSpace(v) == "" {
				return false, false, nil
			}
		}
		return true, true, nil
	})
	return err
}

func isTimeout(err error) bool {
	var te *wait.TimeoutError
	return errors.As(err, &te)
}
