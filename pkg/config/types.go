package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thomascherickal/strawberryfields/pkg/api"
	"github.com/thomascherickal/strawberryfields/pkg/telemetry"
)

// Config is the top-level CLI configuration, read from a YAML file and
// layered under environment variables and command-line flags.
type Config struct {
	// API configures the connection to the platform.
	API APIConfig `yaml:"api"`

	// Telemetry configures logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Store configures the local submission ledger.
	Store StoreConfig `yaml:"store"`
}

// APIConfig holds the connection settings passed to the client.
type APIConfig struct {
	// Hostname is the API server host (e.g., "platform.example.com").
	Hostname string `yaml:"hostname"`

	// AuthToken is the API authentication token.
	AuthToken string `yaml:"authentication_token"`

	// UseSSL selects https when true. Left unset it defaults to secure.
	UseSSL *bool `yaml:"use_ssl"`

	// AllowedHosts lists hostnames the client may connect to.
	AllowedHosts []string `yaml:"allowed_hosts"`

	// Timeout is the per-request timeout as a duration string (e.g., "30s").
	// Empty means no timeout.
	Timeout string `yaml:"timeout"`
}

// TelemetryConfig holds the observability knobs exposed in the config file.
type TelemetryConfig struct {
	// LogLevel is the minimum level to emit (trace, debug, info, warn,
	// error, fatal).
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// LogFormat selects json or console output.
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=json console"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry export.
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics server binds to.
	ListenAddress string `yaml:"listen_address" validate:"omitempty,hostname_port"`
}

// TracingConfig configures OpenTelemetry trace export.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool `yaml:"enabled"`

	// Exporter selects the trace exporter (otlp, stdout, none).
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// SamplingRate is the trace sampling rate between 0.0 and 1.0.
	SamplingRate float64 `yaml:"sampling_rate" validate:"min=0,max=1"`

	// Insecure disables TLS on the OTLP connection.
	Insecure bool `yaml:"insecure"`
}

// StoreConfig configures the local submission ledger.
type StoreConfig struct {
	// Path is the SQLite database file. Empty selects the default location
	// under the user config directory.
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Telemetry: TelemetryConfig{
			LogLevel:  "info",
			LogFormat: "console",
			Metrics: MetricsConfig{
				Enabled:       false,
				ListenAddress: ":9464",
			},
			Tracing: TracingConfig{
				Enabled:      false,
				Exporter:     "stdout",
				SamplingRate: 1.0,
			},
		},
	}
}

// DefaultConfigPath returns the standard location of the config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "strawberryfields", "sf.yaml"), nil
}

// DefaultStorePath returns the standard location of the submission ledger.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "strawberryfields", "jobs.db"), nil
}

// APIOptions converts the api section into client options. Zero-valued
// fields are left unset so the client's own environment and default
// resolution still applies.
func (c *Config) APIOptions() (api.Options, error) {
	opts := api.Options{
		Hostname:     c.API.Hostname,
		AuthToken:    c.API.AuthToken,
		AllowedHosts: c.API.AllowedHosts,
	}
	if c.API.UseSSL != nil {
		opts.UseTLS = api.Bool(*c.API.UseSSL)
	}
	if c.API.Timeout != "" {
		d, err := time.ParseDuration(c.API.Timeout)
		if err != nil {
			return api.Options{}, fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
		}
		opts.Timeout = d
	}
	return opts, nil
}

// TelemetryConfig converts the telemetry section into the full telemetry
// configuration, starting from its defaults.
func (c *Config) TelemetryConfig(serviceVersion string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = serviceVersion
	if c.Telemetry.LogLevel != "" {
		tc.Logging.Level = c.Telemetry.LogLevel
	}
	if c.Telemetry.LogFormat != "" {
		tc.Logging.Format = c.Telemetry.LogFormat
	}
	tc.Metrics.Enabled = c.Telemetry.Metrics.Enabled
	if c.Telemetry.Metrics.ListenAddress != "" {
		tc.Metrics.ListenAddress = c.Telemetry.Metrics.ListenAddress
	}
	tc.Tracing.Enabled = c.Telemetry.Tracing.Enabled
	if c.Telemetry.Tracing.Exporter != "" {
		tc.Tracing.Exporter = c.Telemetry.Tracing.Exporter
	}
	if c.Telemetry.Tracing.Endpoint != "" {
		tc.Tracing.Endpoint = c.Telemetry.Tracing.Endpoint
	}
	if c.Telemetry.Tracing.SamplingRate > 0 {
		tc.Tracing.SamplingRate = c.Telemetry.Tracing.SamplingRate
	}
	tc.Tracing.Insecure = c.Telemetry.Tracing.Insecure
	return tc
}

// StorePath returns the configured ledger path, falling back to the default
// location when the config file leaves it empty.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	return DefaultStorePath()
}
