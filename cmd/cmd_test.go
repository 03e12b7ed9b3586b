// -- cmd/cmd_test.go --
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/browser/browsertest"
	"github.com/xkilldash9x/regwizard/internal/config"
	"github.com/xkilldash9x/regwizard/internal/observability"
	"github.com/xkilldash9x/regwizard/internal/reporting"
	"github.com/xkilldash9x/regwizard/internal/scenario"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// execute runs a fresh command tree in an empty working directory so that no
// stray config or .env file is picked up.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("REGWIZARD_LOGGER_LEVEL", "error")
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeBrowser swaps the opener for one serving blank fake sessions and
// returns the sessions it handed out.
func fakeBrowser(t *testing.T) *[]*browsertest.Session {
	t.Helper()
	var sessions []*browsertest.Session
	orig := newOpener
	newOpener = func(config.BrowserConfig, *zap.Logger) scenario.Opener {
		return scenario.OpenerFunc(func(context.Context) (browser.Session, error) {
			s := browsertest.NewSession()
			sessions = append(sessions, s)
			return s, nil
		})
	}
	t.Cleanup(func() {
		newOpener = orig
		for _, s := range sessions {
			s.Stop()
		}
	})
	return &sessions
}

func TestVersion(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = orig })

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestScenariosListsCatalogue(t *testing.T) {
	out, err := execute(t, "scenarios")
	require.NoError(t, err)
	for _, name := range scenario.Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "6 steps")
}

func TestRun(t *testing.T) {
	t.Run("FailingScenarioWritesReportAndArtifacts", func(t *testing.T) {
		sessions := fakeBrowser(t)
		t.Setenv("REGWIZARD_TIMEOUTS_STRUCTURAL", "80ms")
		artifacts := filepath.Join(t.TempDir(), "artifacts")
		report := filepath.Join(t.TempDir(), "report.json")

		_, err := execute(t, "run",
			"--scenario", scenario.NameMandatoryGuard,
			"--base-url", "https://example.test/",
			"--output", "json",
			"--output-file", report,
			"--artifacts-dir", artifacts,
		)
		require.ErrorIs(t, err, ErrScenariosFailed)

		require.Len(t, *sessions, 1)
		s := (*sessions)[0]
		assert.Equal(t, []string{"https://example.test/"}, s.NavigatedTo)
		assert.Equal(t, 1, s.Closed)

		raw, err := os.ReadFile(report)
		require.NoError(t, err)
		var summary reporting.Summary
		require.NoError(t, json.Unmarshal(raw, &summary))
		assert.Equal(t, 0, summary.Passed)
		assert.Equal(t, 1, summary.Failed)
		require.Len(t, summary.Results, 1)
		res := summary.Results[0]
		assert.Equal(t, scenario.NameMandatoryGuard, res.Scenario)
		assert.Equal(t, scenario.StatusFailed, res.Steps[0].Status)
		require.Len(t, res.Attachments, 2)
		for _, p := range res.Attachments {
			assert.True(t, strings.HasPrefix(p, artifacts), p)
			assert.FileExists(t, p)
		}
	})

	t.Run("UnknownScenarioFailsBeforeLaunch", func(t *testing.T) {
		sessions := fakeBrowser(t)
		_, err := execute(t, "run", "--scenario", "nope")
		require.Error(t, err)
		assert.Empty(t, *sessions)
	})

	t.Run("FlagsOverrideConfiguration", func(t *testing.T) {
		sessions := fakeBrowser(t)
		t.Setenv("REGWIZARD_FLOW_BASE_URL", "https://from-env.test/")
		_, err := execute(t, "run", "--base-url", "ftp://nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base_url must be an absolute http(s) URL")
		assert.Empty(t, *sessions)
	})

	t.Run("UnsupportedOutputFormat", func(t *testing.T) {
		sessions := fakeBrowser(t)
		_, err := execute(t, "run", "--output", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format: xml")
		assert.Empty(t, *sessions)
	})
}

func TestConfigFromRequiresPreRun(t *testing.T) {
	c := newRunCmd()
	c.SetContext(context.Background())
	_, err := configFrom(c)
	assert.Error(t, err)
}
