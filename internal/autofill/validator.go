// internal/autofill/validator.go
// Package autofill compares the values a registration form filled in by
// itself against the address the scenario expected, always on normalized
// forms.
package autofill

import (
	"fmt"
)

// Field names used in results and assertion errors.
const (
	FieldLine1    = "line1"
	FieldCity     = "city"
	FieldPostal   = "postal"
	FieldProvince = "province"
	FieldCountry  = "country"
)

// DefaultCountry is assumed when the expected address does not name one.
const DefaultCountry = "CA"

// Expected is the address a scenario expects the form to have autofilled.
type Expected struct {
	Line1      string
	City       string
	PostalCode string
	Province   string // name or 2-letter code
	Country    string // name or 2-letter code; empty means Canada
}

// SelectState is what a select control reported at read time.
type SelectState struct {
	// Selected is the value of the currently selected option, "" if none.
	Selected string
	// Values lists every option value offered.
	Values []string
}

// Snapshot is the raw state of the autofilled fields.
type Snapshot struct {
	Line1    string
	City     string
	Postal   string
	Province SelectState
	Country  SelectState
}

// Result is the outcome of one field comparison.
type Result struct {
	Field              string `json:"field"`
	ExpectedNormalized string `json:"expected"`
	ActualNormalized   string `json:"actual"`
	Passed             bool   `json:"passed"`
}

// AssertionError reports a field whose value did not match.
type AssertionError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s mismatch: got %q, expected %q", e.Field, e.Actual, e.Expected)
}

// Validate compares every field and returns one result per field, in form order.
//
// Province and country use a two-tier check: if the select reports a
// selected value it must equal the expected code exactly; if nothing is
// selected yet, the expected code only has to be among the offered options.
// Some components pre-select and some only pre-populate.
func Validate(want Expected, got Snapshot) []Result {
	country := want.Country
	if country == "" {
		country = DefaultCountry
	}
	return []Result{
		compare(FieldLine1, NormalizeText(want.Line1), NormalizeText(got.Line1)),
		compare(FieldCity, NormalizeText(want.City), NormalizeText(got.City)),
		compare(FieldPostal, NormalizePostal(want.PostalCode), NormalizePostal(got.Postal)),
		compareSelect(FieldProvince, ProvinceCode(want.Province), got.Province),
		compareSelect(FieldCountry, CountryCode(country), got.Country),
	}
}

// FirstFailure converts the first failed result into an *AssertionError.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if !r.Passed {
			return &AssertionError{Field: r.Field, Expected: r.ExpectedNormalized, Actual: r.ActualNormalized}
		}
	}
	return nil
}

func compare(field, want, got string) Result {
	return Result{Field: field, ExpectedNormalized: want, ActualNormalized: got, Passed: want == got}
}

func compareSelect(field, wantCode string, got SelectState) Result {
	if got.Selected != "" {
		return compare(field, wantCode, got.Selected)
	}
	for _, v := range got.Values {
		if v == wantCode {
			return Result{Field: field, ExpectedNormalized: wantCode, ActualNormalized: "option " + v, Passed: true}
		}
	}
	return Result{Field: field, ExpectedNormalized: wantCode, ActualNormalized: fmt.Sprintf("no selection; options %v", got.Values), Passed: false}
}
