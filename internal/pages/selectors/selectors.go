// internal/pages/selectors/selectors.go
// Package selectors holds the locators of the registration wizard, one block
// per screen. Page objects and test sites share them so a markup change is a
// one-line edit here.
package selectors

import "github.com/xkilldash9x/regwizard/internal/browser"

// Home page.
var (
	JoinButton       = browser.ByCSS("[data-cy='registerBtn']")
	StayOnSiteButton = browser.ByCSS("[data-cy='wronglocationmodal-3f9c8c48']")
	// JoinModalGuard is a loose text match: it is satisfied by any ancestor
	// containing "Join", the document root included. JoinModalStepper is the
	// signal that only exists inside the open modal.
	JoinModalGuard     = browser.ByXPath("//*[contains(., 'Join')]")
	JoinModalStepper   = browser.ByCSS("[data-cy^='quickregisterstep-']")
	CookieAcceptButton = browser.ByCSS("#onetrust-accept-btn-handler, [data-cy^='cookiebanner-'] button")
)

// Step 1.
var (
	Step1Title       = browser.ByCSS("[data-cy^='quickregisterstep-'][class*='title']")
	Step1Form        = browser.ByCSS("form[data-cy^='form-']")
	UsernameInput    = browser.ByID("username")
	PasswordInput    = browser.ByID("password")
	ConfirmInput     = browser.ByID("confirmPassword")
	EmailInput       = browser.ByID("email")
	FirstNameInput   = browser.ByID("forename")
	LastNameInput    = browser.ByID("surname")
	PhoneInput       = browser.ByCSS(".intl-tel-input input[type='tel']")
	PromoDropdown    = browser.ByCSS("[data-cy='selectelement-ecf39028'] select")
	PromoManualInput = browser.ByID("offlineCode")
	DOBSelects       = browser.ByCSS("[data-cy='selectdob-2d710be8'] select")
	LanguageSelect   = browser.ByCSS("[data-cy='select-5daef049'] select")
	TermsCheckbox    = browser.ByID("check1")
	// The same control continues Step 1 and submits Step 2.
	ContinueButton = browser.ByCSS("[data-cy='button-8fda5617']")
)

// Step 2.
var (
	SubmitButton      = ContinueButton
	Line1Input        = browser.ByID("houseNo")
	CityInput         = browser.ByID("city")
	PostalInput       = browser.ByID("postcode")
	ProvinceSelect    = browser.ByXPath("//select[option[@data-cy='stateselect-0a1ca5eb']]")
	CountrySelect     = browser.ByXPath("//select[option[@data-cy='countryselect-25074a35']]")
	MarketingCheckbox = browser.ByID("communicationConsent")
	AddressInput      = browser.ByCSS("div[data-cy^='autocompleteaddress-'] input")
	SuggestionList    = browser.ByCSS("div[data-cy^='autocompleteaddress-'] ul[data-cy^='autocompleteaddress-']")
	SuggestionItems   = browser.ByCSS("div[data-cy^='autocompleteaddress-'] li[data-cy^='autocompleteaddress-']")
)

// DOBSelectCount is the number of date-of-birth controls: month, day, year.
const DOBSelectCount = 3
