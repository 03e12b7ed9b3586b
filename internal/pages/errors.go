// internal/pages/errors.go
package pages

import (
	"fmt"

	"github.com/xkilldash9x/regwizard/internal/browser"
)

// StructuralError reports markup that does not have the expected shape. It is
// never retried: it signals a regression in the page, not a timing problem.
type StructuralError struct {
	Locator  browser.Locator
	Expected int
	Actual   int
	Context  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: expected %d elements matching %s, found %d", e.Context, e.Expected, e.Locator, e.Actual)
}

// NoSuggestionError reports that the address autocomplete offered no usable
// candidate for the query.
type NoSuggestionError struct {
	Query  string
	Filter string
	Index  int
	// Offered is the number of suggestions seen when the pick was attempted.
	Offered int
	Cause   error
}

func (e *NoSuggestionError) Error() string {
	msg := fmt.Sprintf("no address suggestion for query %q (filter %q, index %d, offered %d)", e.Query, e.Filter, e.Index, e.Offered)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NoSuggestionError) Unwrap() error { return e.Cause }
