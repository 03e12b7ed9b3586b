// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/regwizard/internal/browser"
	"github.com/xkilldash9x/regwizard/internal/fixtures"
	"github.com/xkilldash9x/regwizard/internal/pages"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Flow      FlowConfig      `mapstructure:"flow" yaml:"flow"`
	Timeouts  pages.Timeouts  `mapstructure:"timeouts" yaml:"timeouts"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the terminal color of each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig selects and tunes the browser backend.
type BrowserConfig struct {
	Driver            string        `mapstructure:"driver" yaml:"driver"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	BlockPrompts      bool          `mapstructure:"block_prompts" yaml:"block_prompts"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// LaunchOptions converts the browser section into backend launch options.
func (b BrowserConfig) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:     b.Headless,
		WindowWidth:  b.WindowWidth,
		WindowHeight: b.WindowHeight,
		ExecPath:     b.ExecPath,
		Args:         b.Args,
		BlockPrompts: b.BlockPrompts,
	}
}

// FlowConfig describes the registration flow under test.
type FlowConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	Password string `mapstructure:"password" yaml:"password"`
	// Address is a key of fixtures.Addresses.
	Address string `mapstructure:"address" yaml:"address"`
}

// ArtifactsConfig controls where failure attachments and run summaries go.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "regwizard")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.driver", browser.DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1400)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.block_prompts", true)
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Flow --
	v.SetDefault("flow.base_url", "https://www.bet99.com/")
	v.SetDefault("flow.password", fixtures.DefaultPassword)
	v.SetDefault("flow.address", "saint-raphael")

	// -- Timeouts --
	t := pages.DefaultTimeouts()
	v.SetDefault("timeouts.structural", t.Structural)
	v.SetDefault("timeouts.short", t.Short)
	v.SetDefault("timeouts.fluent", t.Fluent)
	v.SetDefault("timeouts.optional", t.Optional)
	v.SetDefault("timeouts.poll_fast", t.PollFast)
	v.SetDefault("timeouts.poll_settle", t.PollSettle)
	v.SetDefault("timeouts.poll_default", t.PollDefault)

	// -- Artifacts --
	v.SetDefault("artifacts.dir", "artifacts")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Paths may be written relative to the home directory.
	var err error
	if cfg.Artifacts.Dir, err = homedir.Expand(cfg.Artifacts.Dir); err != nil {
		return nil, fmt.Errorf("expand artifacts.dir: %w", err)
	}
	if cfg.Logger.LogFile, err = homedir.Expand(cfg.Logger.LogFile); err != nil {
		return nil, fmt.Errorf("expand logger.log_file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Flow.Validate(); err != nil {
		return fmt.Errorf("flow configuration invalid: %w", err)
	}
	if err := validateTimeouts(c.Timeouts); err != nil {
		return fmt.Errorf("timeouts configuration invalid: %w", err)
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is a required configuration field")
	}
	return nil
}

// Validate checks the browser section.
func (b *BrowserConfig) Validate() error {
	if !slices.Contains([]string{browser.DriverChromedp, browser.DriverPlaywright}, b.Driver) {
		return fmt.Errorf("driver must be %q or %q, got %q", browser.DriverChromedp, browser.DriverPlaywright, b.Driver)
	}
	if b.WindowWidth < 0 || b.WindowHeight < 0 {
		return fmt.Errorf("window size must not be negative")
	}
	if b.NavigationTimeout < 0 {
		return fmt.Errorf("navigation_timeout must not be negative")
	}
	return nil
}

// Validate checks the flow section.
func (f *FlowConfig) Validate() error {
	u, err := url.Parse(f.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", f.BaseURL)
	}
	if f.Password == "" {
		return fmt.Errorf("password is a required configuration field")
	}
	if _, ok := fixtures.Addresses()[f.Address]; !ok {
		return fmt.Errorf("unknown address fixture %q", f.Address)
	}
	return nil
}

// validateTimeouts rejects negative durations. Zero means "use the default".
func validateTimeouts(t pages.Timeouts) error {
	for name, d := range map[string]time.Duration{
		"structural":   t.Structural,
		"short":        t.Short,
		"fluent":       t.Fluent,
		"optional":     t.Optional,
		"poll_fast":    t.PollFast,
		"poll_settle":  t.PollSettle,
		"poll_default": t.PollDefault,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
