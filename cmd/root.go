// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/regwizard/internal/config"
	"github.com/xkilldash9x/regwizard/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// flagKeys binds command-line flags to config keys. Flags are the explicit
// override layer, above environment and files.
var flagKeys = map[string]string{
	"base-url":      "flow.base_url",
	"headless":      "browser.headless",
	"driver":        "browser.driver",
	"address":       "flow.address",
	"artifacts-dir": "artifacts.dir",
	"log-level":     "logger.level",
}

// NewRootCommand builds a fresh command tree, so that flag state never leaks
// between executions.
func NewRootCommand() *cobra.Command {
	var loadOpts config.LoadOptions

	root := &cobra.Command{
		Use:           "regwizard",
		Short:         "regwizard drives the registration wizard end to end in a real browser.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 1. Resolve configuration from every source.
			loader, err := config.NewLoader(loadOpts)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			if err := bindFlags(cmd, loader); err != nil {
				return err
			}
			cfg, err := loader.Config()
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			// 2. Logging.
			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Configuration loaded.",
				zap.String("version", Version),
				zap.String("config_file", loader.ConfigFileUsed()),
				zap.String("driver", cfg.Browser.Driver))

			// 3. Hand the config to subcommands.
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVarP(&loadOpts.ConfigFile, "config", "c", "", "config file (default is ./config.yaml)")
	pf.StringVar(&loadOpts.LegacyFile, "legacy-config", config.DefaultLegacyFile, "flat key=value settings file")
	pf.StringVar(&loadOpts.EnvFile, "env-file", ".env", "dotenv file loaded into the environment")
	pf.String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newRunCmd(), newScenariosCmd(), newVersionCmd())
	return root
}

func bindFlags(cmd *cobra.Command, loader *config.Loader) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := loader.Viper().BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

// configFrom returns the configuration stored by the root pre-run.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// Execute runs the command tree with ctx and flushes logs before returning.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed.", zap.Error(err))
	}
	return err
}
