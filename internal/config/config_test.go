// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/pages"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "regwizard", cfg.Logger.ServiceName)
	assert.Equal(t, browser.DriverChromedp, cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.BlockPrompts)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, "saint-raphael", cfg.Flow.Address)
	assert.Equal(t, pages.DefaultTimeouts(), cfg.Timeouts)
	assert.NoError(t, cfg.Validate())

	opts := cfg.Browser.LaunchOptions()
	assert.Equal(t, 1400, opts.WindowWidth)
	assert.Equal(t, 900, opts.WindowHeight)
	assert.True(t, opts.Headless)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"UnknownDriver":       {func(c *Config) { c.Browser.Driver = "selenium" }, `driver must be "chromedp" or "playwright"`},
		"RelativeBaseURL":     {func(c *Config) { c.Flow.BaseURL = "/join" }, "base_url must be an absolute http(s) URL"},
		"UnknownAddress":      {func(c *Config) { c.Flow.Address = "atlantis" }, `unknown address fixture "atlantis"`},
		"EmptyPassword":       {func(c *Config) { c.Flow.Password = "" }, "password is a required configuration field"},
		"NegativeTimeout":     {func(c *Config) { c.Timeouts.Fluent = -time.Second }, "fluent must not be negative"},
		"NegativeWindow":      {func(c *Config) { c.Browser.WindowWidth = -1 }, "window size must not be negative"},
		"MissingArtifactsDir": {func(c *Config) { c.Artifacts.Dir = "" }, "artifacts.dir is a required configuration field"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("ZeroTimeoutsMeanDefaults", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Timeouts = pages.Timeouts{}
		assert.NoError(t, cfg.Validate())
	})
}

// -- Loader Tests --

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// unsetEnv clears key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoaderPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{"REGWIZARD_FLOW_BASE_URL", "REGWIZARD_BROWSER_DRIVER", "REGWIZARD_BROWSER_HEADLESS"} {
		unsetEnv(t, k)
	}

	writeFile(t, filepath.Join(dir, DefaultLegacyFile), strings.Join([]string{
		"# legacy settings",
		"baseUrl=https://legacy.example/",
		"headless=false",
		"flow.address=toronto",
	}, "\n"))
	writeFile(t, filepath.Join(dir, "config.yaml"), "flow:\n  base_url: https://yaml.example/\n")
	writeFile(t, filepath.Join(dir, ".env"), "REGWIZARD_BROWSER_DRIVER=playwright\n")

	l, err := NewLoader(LoadOptions{})
	require.NoError(t, err)

	t.Run("FileOverDefault", func(t *testing.T) {
		assert.Equal(t, "false", l.Get("browser.headless", "true"))
		assert.Equal(t, "toronto", l.Get("flow.address", ""))
	})

	t.Run("YAMLOverLegacy", func(t *testing.T) {
		assert.Equal(t, "https://yaml.example/", l.Get("flow.base_url", ""))
		assert.Equal(t, "https://yaml.example/", l.Get("baseUrl", ""))
		assert.Equal(t, filepath.Join(dir, "config.yaml"), l.ConfigFileUsed())
	})

	t.Run("DotEnvFeedsEnvironment", func(t *testing.T) {
		assert.Equal(t, browser.DriverPlaywright, l.Get("browser.driver", ""))
	})

	t.Run("EnvironmentOverFile", func(t *testing.T) {
		t.Setenv("REGWIZARD_FLOW_BASE_URL", "https://env.example/")
		assert.Equal(t, "https://env.example/", l.Get("flow.base_url", ""))
	})

	t.Run("OverrideOverEnvironment", func(t *testing.T) {
		t.Setenv("REGWIZARD_BROWSER_HEADLESS", "false")
		l.Set("browser.headless", true)
		assert.Equal(t, "true", l.Get("browser.headless", ""))
	})

	t.Run("DefaultForUnknownKey", func(t *testing.T) {
		assert.Equal(t, "fallback", l.Get("no.such.key", "fallback"))
	})

	t.Run("ConfigUnmarshalsAllLayers", func(t *testing.T) {
		cfg, err := l.Config()
		require.NoError(t, err)
		assert.Equal(t, browser.DriverPlaywright, cfg.Browser.Driver)
		assert.True(t, cfg.Browser.Headless)
		assert.Equal(t, "toronto", cfg.Flow.Address)
	})
}

func TestLoaderMissingOptionalFiles(t *testing.T) {
	t.Chdir(t.TempDir())
	unsetEnv(t, "REGWIZARD_FLOW_BASE_URL")

	l, err := NewLoader(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://www.bet99.com/", l.Get("baseUrl", ""))
	assert.Empty(t, l.ConfigFileUsed())
}

func TestLoaderExplicitConfigFileMustExist(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := NewLoader(LoadOptions{ConfigFile: "nope.yaml"})
	assert.Error(t, err)
}

func TestLoaderTimeoutsFromYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	unsetEnv(t, "REGWIZARD_TIMEOUTS_FLUENT")
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "timeouts:\n  fluent: 2s\n  poll_fast: 50ms\nartifacts:\n  dir: ~/regwizard-runs\n")

	l, err := NewLoader(LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	cfg, err := l.Config()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Timeouts.Fluent)
	assert.Equal(t, 50*time.Millisecond, cfg.Timeouts.PollFast)
	assert.Equal(t, pages.DefaultTimeouts().Structural, cfg.Timeouts.Structural)
	assert.False(t, strings.HasPrefix(cfg.Artifacts.Dir, "~"))
	assert.True(t, strings.HasSuffix(cfg.Artifacts.Dir, "regwizard-runs"))
}
