// File: internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REGWIZARD_FLOW_BASE_URL.
const EnvPrefix = "REGWIZARD"

// DefaultLegacyFile is the flat key=value file older setups keep their
// settings in.
const DefaultLegacyFile = "config/test.properties"

// legacyAliases maps the flat keys of the legacy file onto config keys.
// Keys are lowercase because viper folds case.
var legacyAliases = map[string]string{
	"baseurl":  "flow.base_url",
	"headless": "browser.headless",
	"password": "flow.password",
	"driver":   "browser.driver",
}

// LoadOptions locate the files a Loader reads. Empty fields use the defaults.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. When empty, config.yaml is searched
	// for in the working directory and in ~/.regwizard.
	ConfigFile string
	// LegacyFile defaults to DefaultLegacyFile. A missing file is ignored.
	LegacyFile string
	// EnvFile defaults to ".env". A missing file is ignored.
	EnvFile string
}

// Loader resolves settings with the precedence explicit override > environment
// > config file > default.
type Loader struct {
	v *viper.Viper
}

// NewLoader reads every configuration source. Missing optional files are not
// errors; unreadable or malformed ones are.
func NewLoader(opts LoadOptions) (*Loader, error) {
	// 1. .env only fills variables that are not already set.
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	SetDefaults(v)

	// 2. Environment.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Legacy flat file, then YAML on top of it.
	legacy := opts.LegacyFile
	if legacy == "" {
		legacy = DefaultLegacyFile
	}
	if err := mergeLegacy(v, legacy); err != nil {
		return nil, err
	}
	if err := mergeYAML(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	// Legacy names stay usable with Get and Set.
	v.RegisterAlias("baseUrl", "flow.base_url")

	return &Loader{v: v}, nil
}

func mergeLegacy(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// The legacy format is key=value or key: value lines with # comments,
	// which the dotenv parser accepts as is.
	flat, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	nested := make(map[string]any)
	for k, val := range flat {
		key := strings.ToLower(k)
		if alias, ok := legacyAliases[key]; ok {
			key = alias
		}
		setNested(nested, strings.Split(key, "."), val)
	}
	if err := v.MergeConfigMap(nested); err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	return nil
}

func setNested(m map[string]any, path []string, val string) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = val
}

func mergeYAML(v *viper.Viper, explicit string) error {
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".regwizard"))
		}
	}
	err := v.MergeInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || (explicit == "" && errors.As(err, &notFound)) {
		return nil
	}
	return fmt.Errorf("read config file: %w", err)
}

// Viper exposes the underlying instance so that command-line flags can be
// bound into the override layer.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Get returns the resolved value of key, or def when no source sets it.
func (l *Loader) Get(key, def string) string {
	if !l.v.IsSet(key) {
		return def
	}
	return l.v.GetString(key)
}

// Set records an explicit override, the highest-precedence source.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// ConfigFileUsed reports the YAML file that was read, if any.
func (l *Loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

// Config unmarshals and validates the resolved settings.
func (l *Loader) Config() (*Config, error) {
	return NewConfigFromViper(l.v)
}
