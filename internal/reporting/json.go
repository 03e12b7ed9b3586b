// internal/reporting/json.go
package reporting

import (
	"io"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/regwizard/internal/scenario"
)

// Summary is the JSON document written for a run.
type Summary struct {
	Tool        string            `json:"tool"`
	Version     string            `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Passed      int               `json:"passed"`
	Failed      int               `json:"failed"`
	Results     []scenario.Result `json:"results"`
}

// JSONReporter buffers results and writes one Summary on Close.
type JSONReporter struct {
	w       io.WriteCloser
	summary Summary
	now     func() time.Time
}

func NewJSONReporter(w io.WriteCloser, toolVersion string) *JSONReporter {
	return &JSONReporter{
		w:       w,
		summary: Summary{Tool: "regwizard", Version: toolVersion, Results: []scenario.Result{}},
		now:     time.Now,
	}
}

func (r *JSONReporter) Write(res scenario.Result) error {
	if res.Passed() {
		r.summary.Passed++
	} else {
		r.summary.Failed++
	}
	r.summary.Results = append(r.summary.Results, res)
	return nil
}

func (r *JSONReporter) Close() error {
	r.summary.GeneratedAt = r.now().UTC()
	enc := json.ConfigCompatibleWithStandardLibrary.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	err := enc.Encode(r.summary)
	if cerr := r.w.Close(); err == nil {
		err = cerr
	}
	return err
}
