// internal/reporting/reporter.go
// Package reporting writes scenario results and stores failure attachments.
package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/regwizard/internal/scenario"
)

// Reporter writes scenario results to an output.
type Reporter interface {
	// Write records one scenario result.
	Write(result scenario.Result) error
	// Close finalizes the report and closes the underlying output.
	Close() error
}

// nopWriteCloser keeps Close from closing stdout.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// New creates a reporter for format ("text" or "json") writing to outputPath,
// or to stdout when outputPath is empty or "stdout".
func New(format, outputPath, toolVersion string) (Reporter, error) {
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var w io.WriteCloser = nopWriteCloser{os.Stdout}
	if outputPath != "" && outputPath != "stdout" {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		w = f
	}

	if format == "json" {
		return NewJSONReporter(w, toolVersion), nil
	}
	return NewTextReporter(w), nil
}
