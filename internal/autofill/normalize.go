// internal/autofill/normalize.go
package autofill

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// provinceCodes maps lowercased Canadian province and territory names to
// their postal abbreviations.
var provinceCodes = map[string]string{
	"alberta":                   "AB",
	"british columbia":          "BC",
	"manitoba":                  "MB",
	"new brunswick":             "NB",
	"newfoundland and labrador": "NL",
	"northwest territories":     "NT",
	"nova scotia":               "NS",
	"nunavut":                   "NU",
	"ontario":                   "ON",
	"prince edward island":      "PE",
	"quebec":                    "QC",
	"saskatchewan":              "SK",
	"yukon":                     "YT",
}

var countryCodes = map[string]string{
	"canada": "CA",
}

// NormalizeText trims and lowercases free text such as street lines and cities.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePostal strips all whitespace and uppercases, so "m5v 3a8" and
// "M5V3A8" compare equal.
func NormalizePostal(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// ProvinceCode maps a province name or code to its 2-letter code. Names match
// without regard to case or accents, so "Québec" is QC. Two-letter input
// passes through uppercased. Unknown names also pass through uppercased so
// that they surface as obviously wrong codes in comparisons.
func ProvinceCode(nameOrCode string) string {
	return toCode(nameOrCode, provinceCodes)
}

// CountryCode maps a country name or code to its 2-letter code, with the same
// passthrough rules as ProvinceCode.
func CountryCode(nameOrCode string) string {
	return toCode(nameOrCode, countryCodes)
}

func toCode(nameOrCode string, table map[string]string) string {
	s := strings.TrimSpace(nameOrCode)
	if len([]rune(s)) == 2 {
		return strings.ToUpper(s)
	}
	if code, ok := table[lookupKey(s)]; ok {
		return code
	}
	return strings.ToUpper(s)
}

// lookupKey strips combining marks and case-folds s. Transformers and casers
// carry state, so each call builds its own.
func lookupKey(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}
