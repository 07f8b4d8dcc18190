package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/thomascherickal/strawberryfields/pkg/api"
)

// Loader reads, validates, and watches the CLI configuration file.
type Loader struct {
	logger   zerolog.Logger
	validate *validator.Validate
	watcher  *watcher
}

// NewLoader creates a new config loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger:   logger.With().Str("component", "config-loader").Logger(),
		validate: validator.New(),
	}
}

// Load reads the config file at path, layered over the defaults. The file
// must exist and validate.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := l.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	l.logger.Debug().
		Str("path", path).
		Msg("Config file loaded")

	return cfg, nil
}

// LoadOrDefault reads the config file at path, returning the defaults when
// the file does not exist. Any other failure is an error.
func (l *Loader) LoadOrDefault(path string) (*Config, error) {
	cfg, err := l.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Debug().
				Str("path", path).
				Msg("No config file found, using defaults")
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvironment overlays the client environment variables onto cfg, so
// that environment values take precedence over file values. Flag overrides
// are applied by the caller on top of the result.
func ApplyEnvironment(cfg *Config) error {
	if v, ok := os.LookupEnv(api.EnvAuthenticationToken); ok {
		cfg.API.AuthToken = v
	}
	if v, ok := os.LookupEnv(api.EnvHostname); ok {
		cfg.API.Hostname = v
	}
	if v, ok := os.LookupEnv(api.EnvUseSSL); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid boolean %q in %s: %w", v, api.EnvUseSSL, err)
		}
		ssl := parsed
		cfg.API.UseSSL = &ssl
	}
	return nil
}
