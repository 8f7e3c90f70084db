// Package config loads runtime settings from .intake.yaml, INTAKE_* env vars
// and command-line flags through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-intake/pkg/engine"
	"github.com/goliatone/go-intake/pkg/report"
)

// AppName names the per-user data and log directories.
const AppName = "Magnus Client Intake"

// EnvPrefix prefixes environment overrides, e.g. INTAKE_VALIDATION_MODE.
const EnvPrefix = "INTAKE"

// Config holds all runtime configuration for the intake wizard.
type Config struct {
	ValidationMode   string        `mapstructure:"validation_mode"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
	DataDir          string        `mapstructure:"data_dir"`
	LogDir           string        `mapstructure:"log_dir"`
	LogLevel         string        `mapstructure:"log_level"`
	MRUMax           int           `mapstructure:"mru_max"`
	Catalog          string        `mapstructure:"catalog"`
	ReportFormat     string        `mapstructure:"report_format"`
}

// Mode returns the parsed validation mode. Load has already rejected
// unknown values.
func (c Config) Mode() engine.Mode {
	mode, _ := engine.ParseMode(c.ValidationMode)
	return mode
}

// Format returns the parsed report format.
func (c Config) Format() report.Format {
	format, _ := report.ParseFormat(c.ReportFormat)
	return format
}

// New returns a viper instance wired to the config file, env prefix and
// search paths. configFile overrides the search when set.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".intake")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return v, nil
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("validation_mode", "hard")
	v.SetDefault("autosave_interval", "60s")
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("log_dir", DefaultLogDir())
	v.SetDefault("log_level", "info")
	v.SetDefault("mru_max", 10)
	v.SetDefault("catalog", "")
	v.SetDefault("report_format", "html")
}

// Load reads configuration from v, applying defaults for any values not set
// by config file, environment or flags, and rejects invalid settings.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if _, err := engine.ParseMode(c.ValidationMode); err != nil {
		return fmt.Errorf("config: validation_mode: %w", err)
	}
	if _, err := report.ParseFormat(c.ReportFormat); err != nil {
		return fmt.Errorf("config: report_format: %w", err)
	}
	if c.AutosaveInterval < 0 {
		return fmt.Errorf("config: autosave_interval must not be negative, got %s", c.AutosaveInterval)
	}
	if c.MRUMax <= 0 {
		return fmt.Errorf("config: mru_max must be positive, got %d", c.MRUMax)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data_dir is empty")
	}
	return nil
}

// DefaultDataDir is the per-user directory for the MRU list: %APPDATA% on
// Windows, ~/Library/Application Support on macOS, $XDG_CONFIG_HOME
// elsewhere.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = home
	}
	return filepath.Join(base, "Magnus")
}

// DefaultLogDir is %LOCALAPPDATA%/<app>/Logs on Windows and
// $XDG_STATE_HOME/<app>/logs elsewhere.
func DefaultLogDir() string {
	if runtime.GOOS == "windows" {
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base, _ = os.UserHomeDir()
		}
		return filepath.Join(base, AppName, "Logs")
	}
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, AppName, "logs")
}
