// internal/pages/pagestest/site.go
// Package pagestest provides an in-memory registration wizard built on the
// fake browser session, for tests of page objects and of the flows that use
// them.
package pagestest

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/browser/browsertest"
	"github.com/xkilldash9x/regwizard/internal/pages/selectors"
)

// Site models the wizard. Step 1 appears after Join, Step 2 after Continue,
// suggestions a little after typing into the address search, and the
// autofilled fields a little after a suggestion is clicked. Continue carries
// disabled="true" until every mandatory field is filled and terms are
// accepted.
//
// Element fields may be read with browsertest.Snapshot and changed inside
// Session.Update.
type Site struct {
	Session *browsertest.Session

	// Document is the root element. It always matches the loose join guard.
	Document                                                      *browsertest.Element
	Join, Stay, Stepper                                           *browsertest.Element
	Title, Form                                                   *browsertest.Element
	Username, Password, Confirm, Email, FirstName, LastName, Phone *browsertest.Element
	Promo                                                         *browsertest.Element
	DOB                                                           []*browsertest.Element
	Language, Terms, Continue                                     *browsertest.Element
	Address, List                                                 *browsertest.Element
	Line1, City, Postal, Province, Country, Marketing             *browsertest.Element

	// Offer lists suggestion texts as "line1, city, PR POSTAL".
	Offer         []string
	ListDelay     time.Duration
	ItemsDelay    time.Duration
	AutofillDelay time.Duration
	// ObscureItems makes native clicks on suggestions fail as intercepted.
	ObscureItems bool

	items     []*browsertest.Element
	step      int
	submitted int
}

// NewSite builds the wizard on a fresh fake session, stopped on cleanup. The
// default offer contains a Mississauga and a Toronto entry for 123 Main St.
func NewSite(t testing.TB) *Site {
	t.Helper()
	s := browsertest.NewSession()
	t.Cleanup(s.Stop)

	st := &Site{
		Session: s,
		Offer: []string{
			"123 Main St, Mississauga, ON L5B 1M2",
			"123 Main St, Toronto, ON M5V 3A8",
		},
		ListDelay:     30 * time.Millisecond,
		ItemsDelay:    60 * time.Millisecond,
		AutofillDelay: 40 * time.Millisecond,
	}
	hidden := func(name string) *browsertest.Element {
		el := s.NewElement(name)
		el.Visible = false
		return el
	}

	st.Document = s.NewElement("html")
	st.Join = s.NewElement("join")
	st.Stay = s.NewElement("stay")
	st.Stepper = hidden("stepper")

	st.Title, st.Form = hidden("title"), hidden("form")
	st.Username, st.Password, st.Confirm = hidden("username"), hidden("password"), hidden("confirm")
	st.Email, st.FirstName, st.LastName, st.Phone = hidden("email"), hidden("first"), hidden("last"), hidden("phone")
	st.Promo = hidden("promo")
	st.DOB = []*browsertest.Element{
		hidden("dob-month").WithOptions(Options(MonthNames())...),
		hidden("dob-day").WithOptions(Options(Numbers(1, 31))...),
		hidden("dob-year").WithOptions(Options(Numbers(1940, 2007))...),
	}
	st.Language = hidden("language").WithOptions(
		browser.Option{Value: "EN", Text: "English", Selected: true},
		browser.Option{Value: "FR", Text: "Français"},
	)
	st.Terms = hidden("terms").Checkbox()
	st.Continue = hidden("continue")
	st.Continue.Attrs["disabled"] = "true"

	st.Address, st.List = hidden("address"), hidden("suggestions")
	st.Line1, st.City, st.Postal = hidden("line1"), hidden("city"), hidden("postal")
	st.Province = hidden("province").WithOptions(
		browser.Option{Value: "", Text: "Province", Selected: true},
		browser.Option{Value: "ON", Text: "Ontario"},
		browser.Option{Value: "QC", Text: "Quebec"},
	)
	st.Country = hidden("country").WithOptions(browser.Option{Value: "CA", Text: "Canada"})
	st.Marketing = hidden("marketing").Checkbox()

	for loc, el := range map[browser.Locator]*browsertest.Element{
		selectors.JoinButton: st.Join, selectors.StayOnSiteButton: st.Stay,
		selectors.JoinModalGuard: st.Document, selectors.JoinModalStepper: st.Stepper,
		selectors.Step1Title: st.Title, selectors.Step1Form: st.Form,
		selectors.UsernameInput: st.Username, selectors.PasswordInput: st.Password, selectors.ConfirmInput: st.Confirm,
		selectors.EmailInput: st.Email, selectors.FirstNameInput: st.FirstName, selectors.LastNameInput: st.LastName,
		selectors.PhoneInput: st.Phone, selectors.PromoManualInput: st.Promo, selectors.LanguageSelect: st.Language,
		selectors.TermsCheckbox: st.Terms, selectors.ContinueButton: st.Continue,
		selectors.AddressInput: st.Address, selectors.SuggestionList: st.List,
		selectors.Line1Input: st.Line1, selectors.CityInput: st.City, selectors.PostalInput: st.Postal,
		selectors.ProvinceSelect: st.Province, selectors.CountrySelect: st.Country, selectors.MarketingCheckbox: st.Marketing,
	} {
		s.Put(loc, el)
	}
	s.Put(selectors.DOBSelects, st.DOB...)
	s.Resolve(selectors.SuggestionItems, func() []*browsertest.Element { return st.items })

	st.wire()
	return st
}

func (st *Site) wire() {
	s := st.Session
	st.Stay.OnClick = func(e *browsertest.Element) {
		s.Update(func() { e.Visible = false })
	}
	st.Join.OnClick = func(*browsertest.Element) {
		s.Update(func() {
			st.step = 1
			show(st.Stepper, st.Title, st.Form, st.Username, st.Password, st.Confirm,
				st.Email, st.FirstName, st.LastName, st.Phone, st.Promo, st.Language, st.Terms, st.Continue)
			show(st.DOB...)
		})
	}
	recompute := func(*browsertest.Element) { s.Update(st.recompute) }
	for _, el := range st.mandatory() {
		el.OnType = func(e *browsertest.Element, _ string) { recompute(e) }
	}
	st.Terms.OnClick = recompute

	st.Continue.OnClick = func(*browsertest.Element) {
		s.Update(func() {
			if st.step == 1 {
				st.step = 2
				hide(st.Title, st.Form, st.Username)
				show(st.Address, st.Line1, st.City, st.Postal, st.Province, st.Country, st.Marketing)
				return
			}
			st.submitted++
		})
	}

	st.Address.OnType = func(*browsertest.Element, string) {
		s.After(st.ListDelay, func() { st.List.Visible = true })
		s.After(st.ItemsDelay, func() { st.items = st.render() })
	}
}

func (st *Site) mandatory() []*browsertest.Element {
	return []*browsertest.Element{st.Username, st.Password, st.Confirm, st.Email, st.FirstName, st.LastName}
}

// recompute runs under the session lock.
func (st *Site) recompute() {
	ready := st.Terms.Selected
	for _, el := range st.mandatory() {
		ready = ready && el.Val != ""
	}
	if ready {
		delete(st.Continue.Attrs, "disabled")
	} else {
		st.Continue.Attrs["disabled"] = "true"
	}
}

// render runs under the session lock.
func (st *Site) render() []*browsertest.Element {
	out := make([]*browsertest.Element, 0, len(st.Offer))
	for i, text := range st.Offer {
		el := st.Session.NewElement("suggestion-" + strconv.Itoa(i))
		el.Label = text
		el.Obscured = st.ObscureItems
		el.OnClick = func(e *browsertest.Element) {
			st.Session.After(st.AutofillDelay, func() { st.autofill(e.Label) })
		}
		out = append(out, el)
	}
	return out
}

// autofill runs under the session lock.
func (st *Site) autofill(text string) {
	parts := strings.Split(text, ", ")
	if len(parts) != 3 {
		return
	}
	region := strings.SplitN(parts[2], " ", 2)
	st.Line1.Val, st.City.Val = parts[0], parts[1]
	if len(region) == 2 {
		st.Postal.Val = region[1]
	}
	for i := range st.Province.Opts {
		st.Province.Opts[i].Selected = st.Province.Opts[i].Value == region[0]
	}
}

// Submissions counts clicks on the shared continue control made on Step 2.
func (st *Site) Submissions() int {
	return browsertest.Snapshot(st.Continue, func(*browsertest.Element) int { return st.submitted })
}

// Step reports the wizard step on screen: 0 home, 1 or 2.
func (st *Site) Step() int {
	return browsertest.Snapshot(st.Continue, func(*browsertest.Element) int { return st.step })
}

func show(els ...*browsertest.Element) {
	for _, el := range els {
		el.Visible = true
	}
}

func hide(els ...*browsertest.Element) {
	for _, el := range els {
		el.Visible = false
	}
}

// Options turns labels into select options whose value equals their text.
func Options(labels []string) []browser.Option {
	out := make([]browser.Option, len(labels))
	for i, l := range labels {
		out[i] = browser.Option{Value: l, Text: l}
	}
	return out
}

// MonthNames returns "Jan" through "Dec".
func MonthNames() []string {
	out := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		out[m-1] = m.String()[:3]
	}
	return out
}

// Numbers returns from..to inclusive as decimal strings.
func Numbers(from, to int) []string {
	var out []string
	for n := from; n <= to; n++ {
		out = append(out, strconv.Itoa(n))
	}
	return out
}
