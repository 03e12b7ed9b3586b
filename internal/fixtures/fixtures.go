// internal/fixtures/fixtures.go
// Package fixtures generates the test data a registration scenario consumes:
// a fresh unique user per run and a small set of canonical Canadian addresses.
package fixtures

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/regwizard/internal/autofill"
)

// DefaultPassword satisfies the wizard's password policy.
const DefaultPassword = "Qwe123!@#"

// User is one applicant. Usernames and emails are unique per call to NewUser.
type User struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	DOB       time.Time `json:"dob"`
	Language  string    `json:"language"`
	PromoCode string    `json:"promo_code,omitempty"`
}

// Address is a lookup query plus the values the form is expected to autofill
// once the matching suggestion is picked.
type Address struct {
	Lookup     string `json:"lookup"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Province   string `json:"province"`
	Country    string `json:"country,omitempty"`
	// Filter disambiguates suggestion entries by substring.
	Filter string `json:"filter,omitempty"`
}

// userSuffixLen keeps usernames within 15 characters while leaving 2^32
// suffixes, so repeated runs against one site do not collide.
const userSuffixLen = 8

// NewUser returns a user with a random suffix, e.g. username "qauser_7f3a09c1".
func NewUser() User {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:userSuffixLen]
	return User{
		Username:  "qauser_" + suffix,
		Password:  DefaultPassword,
		Email:     "qa+" + suffix + "@example.com",
		FirstName: "Qa",
		LastName:  "Tester",
		Phone:     "4165550123",
		DOB:       time.Date(1992, time.May, 14, 0, 0, 0, 0, time.UTC),
		Language:  "en",
	}
}

// AddressToronto is the primary lookup fixture.
func AddressToronto() Address {
	return Address{
		Lookup:     "123 Main St Toronto",
		Line1:      "123 Main St",
		City:       "Toronto",
		PostalCode: "M5V 3A8",
		Province:   "Ontario",
		Filter:     "Toronto",
	}
}

// AddressSaintRaphael is a secondary fixture with an accented city name.
func AddressSaintRaphael() Address {
	return Address{
		Lookup:     "45 Rue Principale Saint-Raphaël",
		Line1:      "45 Rue Principale",
		City:       "Saint-Raphaël",
		PostalCode: "G0R 4C0",
		Province:   "QC",
		Filter:     "Saint-Raphaël",
	}
}

// Addresses lists the named address fixtures.
func Addresses() map[string]Address {
	return map[string]Address{
		"toronto":       AddressToronto(),
		"saint-raphael": AddressSaintRaphael(),
	}
}

// Expected converts the address into the validator's expectation.
func (a Address) Expected() autofill.Expected {
	return autofill.Expected{
		Line1:      a.Line1,
		City:       a.City,
		PostalCode: a.PostalCode,
		Province:   a.Province,
		Country:    a.Country,
	}
}

// DOBMonthShort renders the month the way the date-of-birth select labels it ("May").
func DOBMonthShort(t time.Time) string { return t.Format("Jan") }

// DOBDay renders the day of month without padding ("4").
func DOBDay(t time.Time) string { return strconv.Itoa(t.Day()) }

// DOBYear renders the four-digit year.
func DOBYear(t time.Time) string { return strconv.Itoa(t.Year()) }
