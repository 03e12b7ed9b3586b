// internal/reporting/text.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xkilldash9x/regwizard/internal/scenario"
)

// TextReporter prints one human-readable block per scenario as it finishes.
type TextReporter struct {
	w              io.WriteCloser
	passed, failed int
}

func NewTextReporter(w io.WriteCloser) *TextReporter {
	return &TextReporter{w: w}
}

var statusMark = map[scenario.Status]string{
	scenario.StatusPassed:  "PASS",
	scenario.StatusFailed:  "FAIL",
	scenario.StatusSkipped: "SKIP",
}

func (r *TextReporter) Write(res scenario.Result) error {
	if res.Passed() {
		r.passed++
	} else {
		r.failed++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s) run %s\n", statusMark[res.Status], res.Scenario, res.Duration.Round(time.Millisecond), res.RunID)
	for _, st := range res.Steps {
		fmt.Fprintf(&b, "  %s %s", statusMark[st.Status], st.Name)
		if st.Status != scenario.StatusSkipped {
			fmt.Fprintf(&b, " (%s)", st.Duration.Round(time.Millisecond))
		}
		b.WriteByte('\n')
		if st.Error != "" {
			fmt.Fprintf(&b, "      %s\n", st.Error)
		}
	}
	for _, m := range scenario.AutofillMismatches(res.Autofill) {
		fmt.Fprintf(&b, "  autofill %s: got %q, expected %q\n", m.Field, m.ActualNormalized, m.ExpectedNormalized)
	}
	for _, a := range res.Attachments {
		fmt.Fprintf(&b, "  attachment %s\n", a)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Close prints the totals line and closes the output.
func (r *TextReporter) Close() error {
	_, err := fmt.Fprintf(r.w, "%d passed, %d failed\n", r.passed, r.failed)
	if cerr := r.w.Close(); err == nil {
		err = cerr
	}
	return err
}
