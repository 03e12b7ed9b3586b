// -- cmd/run.go --
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/browser/launcher"
	"github.com/xkilldash9x/regwizard/internal/config"
	"github.com/xkilldash9x/regwizard/internal/fixtures"
	"github.com/xkilldash9x/regwizard/internal/observability"
	"github.com/xkilldash9x/regwizard/internal/reporting"
	"github.com/xkilldash9x/regwizard/internal/scenario"
)

// ErrScenariosFailed is returned by run when at least one scenario failed.
var ErrScenariosFailed = errors.New("scenarios failed")

// newOpener is swapped in tests to avoid launching a browser.
var newOpener = func(cfg config.BrowserConfig, logger *zap.Logger) scenario.Opener {
	return launcher.New(cfg, logger)
}

func newRunCmd() *cobra.Command {
	var (
		names      []string
		output     string
		outputFile string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run registration scenarios against the configured site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			// 1. Resolve the scenarios up front so a typo fails before any browser starts.
			scenarios := scenario.All()
			if len(names) > 0 {
				scenarios = make([]scenario.Scenario, 0, len(names))
				for _, n := range names {
					sc, err := scenario.Lookup(n)
					if err != nil {
						return err
					}
					scenarios = append(scenarios, sc)
				}
			}

			// 2. Wire the runner.
			settings := scenario.Settings{
				BaseURL:  cfg.Flow.BaseURL,
				Password: cfg.Flow.Password,
				Address:  fixtures.Addresses()[cfg.Flow.Address],
				Timeouts: cfg.Timeouts,
			}
			runner := scenario.NewRunner(
				newOpener(cfg.Browser, logger),
				reporting.NewDirAttacher(cfg.Artifacts.Dir),
				settings,
				logger,
			)
			reporter, err := reporting.New(output, outputFile, Version)
			if err != nil {
				return err
			}

			// 3. Run and report.
			failed := 0
			for _, sc := range scenarios {
				res := runner.Run(ctx, sc)
				if !res.Passed() {
					failed++
				}
				if err := reporter.Write(res); err != nil {
					_ = reporter.Close()
					return fmt.Errorf("write result: %w", err)
				}
				if ctx.Err() != nil {
					break
				}
			}
			if err := reporter.Close(); err != nil {
				return fmt.Errorf("finalize report: %w", err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d %w", failed, len(scenarios), ErrScenariosFailed)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&names, "scenario", "s", nil, "scenario to run, repeatable (default all)")
	f.String("base-url", "", "home page URL of the site under test")
	f.Bool("headless", true, "run the browser without a window")
	f.String("driver", "", "browser backend: chromedp or playwright")
	f.String("address", "", "address fixture: toronto or saint-raphael")
	f.String("artifacts-dir", "", "directory for failure screenshots and page sources")
	f.StringVarP(&output, "output", "o", "text", "report format: text or json")
	f.StringVar(&outputFile, "output-file", "", "write the report here instead of stdout")
	return cmd
}
