// Package config handles the configuration directory, the config file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "tasktracker"

	// ConfigFile is the optional YAML settings file in the config directory.
	ConfigFile = "config.yaml"

	// EnvFile is the optional dotenv file read from the config directory.
	EnvFile = ".env"

	// SessionFile holds the refresh credential and cached user.
	SessionFile = "session.json"

	// EnvPrefix prefixes environment overrides, e.g. TASKTRACKER_API_URL.
	EnvPrefix = "TASKTRACKER"

	DefaultAPIURL   = "http://localhost:8080/api/v1"
	DefaultPageSize = 6
	DefaultTimeout  = 30 * time.Second
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `mapstructure:"-"`

	// APIURL is the root of the REST API.
	APIURL string `mapstructure:"api_url" validate:"required,url"`

	// PageSize is the number of tasks per page in list and dashboard.
	PageSize int `mapstructure:"page_size" validate:"gte=1,lte=100"`

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// Debug enables debug logging.
	Debug bool `mapstructure:"-"`

	// Quiet suppresses informational output.
	Quiet bool `mapstructure:"-"`

	// LogOutput receives log lines. Nil discards them.
	LogOutput io.Writer `mapstructure:"-" validate:"-"`
}

// Load reads settings for the given config directory. If configDir is empty,
// uses XDG_CONFIG_HOME/tasktracker or $HOME/.config/tasktracker.
//
// Precedence, highest first: TASKTRACKER_* environment variables (including
// those set by a .env file in the config directory or the working
// directory), config.yaml, built-in defaults. Missing files are fine.
func Load(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	for _, p := range []string{filepath.Join(dir, EnvFile), EnvFile} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
	}

	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigFile(filepath.Join(dir, ConfigFile))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", ConfigFile, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	err := v.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s check (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if a session file exists. It says nothing about
// whether the session is still valid.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// Logger returns a text logger writing to w. Debug lowers the level from
// warnings to everything.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	if w == nil {
		return slog.New(slog.DiscardHandler)
	}
	level := slog.LevelWarn
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
