// internal/reporting/reporter_test.go
package reporting_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/regwizard/internal/autofill"
	"github.com/xkilldash9x/regwizard/internal/reporting"
	"github.com/xkilldash9x/regwizard/internal/scenario"
)

const testToolVersion = "v1.0.0-test"

type bufCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufCloser) Close() error { b.closed = true; return nil }

func failedResult() scenario.Result {
	err := &autofill.AssertionError{Field: autofill.FieldCity, Expected: "toronto", Actual: "mississauga"}
	return scenario.Result{
		Scenario: scenario.NameRegistration,
		RunID:    "0b8e2c4e-0000-4000-8000-000000000000",
		Status:   scenario.StatusFailed,
		Duration: 1500 * time.Millisecond,
		Steps: []scenario.StepResult{
			{Name: "the user is on the home page", Status: scenario.StatusPassed, Duration: 200 * time.Millisecond},
			{Name: "they complete Step 2 with a valid address", Status: scenario.StatusFailed, Duration: time.Second, Error: err.Error()},
		},
		Autofill: []autofill.Result{
			{Field: autofill.FieldLine1, ExpectedNormalized: "123 main st", ActualNormalized: "123 main st", Passed: true},
			{Field: autofill.FieldCity, ExpectedNormalized: "toronto", ActualNormalized: "mississauga"},
		},
		Attachments: []string{"artifacts/registration/0b8e2c4e/01-step-failure-screenshot.png"},
		Error:       err.Error(),
		Err:         err,
	}
}

func TestNew(t *testing.T) {
	t.Run("StdoutForEmptyPath", func(t *testing.T) {
		for _, path := range []string{"", "stdout"} {
			r, err := reporting.New("json", path, testToolVersion)
			require.NoError(t, err)
			require.NotNil(t, r)
		}
	})

	t.Run("CreatesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "summary.json")
		r, err := reporting.New("json", path, testToolVersion)
		require.NoError(t, err)
		require.NoError(t, r.Write(failedResult()))
		require.NoError(t, r.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"scenario": "registration"`)
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		r, err := reporting.New("sarif", "stdout", testToolVersion)
		assert.Nil(t, r)
		assert.ErrorContains(t, err, "unsupported output format: sarif")
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		_, err := reporting.New("text", filepath.Join(t.TempDir(), "missing", "out.txt"), testToolVersion)
		assert.ErrorContains(t, err, "failed to create output file")
	})
}

func TestTextReporter(t *testing.T) {
	var out bufCloser
	r := reporting.NewTextReporter(&out)

	passed := scenario.Result{Scenario: scenario.NameMandatoryGuard, RunID: "r1", Status: scenario.StatusPassed,
		Steps: []scenario.StepResult{{Name: "guard", Status: scenario.StatusPassed}}}
	require.NoError(t, r.Write(passed))
	require.NoError(t, r.Write(failedResult()))
	require.NoError(t, r.Close())

	text := out.String()
	assert.Contains(t, text, "PASS mandatory-guard")
	assert.Contains(t, text, "FAIL registration (1.5s)")
	assert.Contains(t, text, `      city mismatch: got "mississauga", expected "toronto"`)
	assert.Contains(t, text, `autofill city: got "mississauga", expected "toronto"`)
	assert.NotContains(t, text, "autofill line1")
	assert.Contains(t, text, "attachment artifacts/registration/")
	assert.Contains(t, text, "1 passed, 1 failed\n")
	assert.True(t, out.closed)
}

func TestJSONReporter(t *testing.T) {
	var out bufCloser
	r := reporting.NewJSONReporter(&out, testToolVersion)
	require.NoError(t, r.Write(failedResult()))
	require.NoError(t, r.Close())

	var got reporting.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "regwizard", got.Tool)
	assert.Equal(t, testToolVersion, got.Version)
	assert.Equal(t, 0, got.Passed)
	assert.Equal(t, 1, got.Failed)
	assert.False(t, got.GeneratedAt.IsZero())
	require.Len(t, got.Results, 1)

	res := got.Results[0]
	assert.Equal(t, scenario.StatusFailed, res.Status)
	assert.Equal(t, 1500*time.Millisecond, res.Duration)
	assert.Len(t, res.Autofill, 2)
	assert.Nil(t, res.Err, "the error value is not serialized")
	assert.NotContains(t, out.String(), `"Err"`)
	assert.True(t, out.closed)
}

func TestDirAttacher(t *testing.T) {
	root := t.TempDir()
	d := reporting.NewDirAttacher(root)
	ctx := context.Background()
	base := scenario.Attachment{Scenario: "registration", RunID: "0b8e2c4e-aaaa", Step: "They complete Step 2!"}

	shot := base
	shot.Name, shot.MediaType, shot.Data = "Failure screenshot", "image/png", []byte("\x89PNG")
	p1, err := d.Attach(ctx, shot)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "registration", "0b8e2c4e", "01-they-complete-step-2-failure-screenshot.png"), p1)

	src := base
	src.Name, src.MediaType, src.Data = "Page source", "text/plain", []byte("<html></html>")
	p2, err := d.Attach(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "registration", "0b8e2c4e", "02-they-complete-step-2-page-source.txt"), p2)

	data, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	other := base
	other.Name, other.MediaType = "???", "application/octet-stream"
	p3, err := d.Attach(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "03-they-complete-step-2-unnamed.bin", filepath.Base(p3))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.Attach(canceled, shot)
	assert.True(t, errors.Is(err, context.Canceled))
}
