package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/thomascherickal/strawberryfields/pkg/api"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sf.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeConfigFile(t, `
api:
  hostname: platform.example.com
  authentication_token: 071cdcce-9241-4965-93b4-bcdcf00e3b75
  use_ssl: false
  allowed_hosts:
    - platform.example.com
    - localhost
  timeout: 30s

telemetry:
  log_level: debug
  log_format: json
  metrics:
    enabled: true
    listen_address: "127.0.0.1:9464"

store:
  path: /tmp/jobs.db
`)

	loader := NewLoader(zerolog.Nop())
	cfg, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}

	if cfg.API.Hostname != "platform.example.com" {
		t.Errorf("Expected hostname platform.example.com, got %q", cfg.API.Hostname)
	}
	if cfg.API.AuthToken != "071cdcce-9241-4965-93b4-bcdcf00e3b75" {
		t.Errorf("Expected the file token, got %q", cfg.API.AuthToken)
	}
	if cfg.API.UseSSL == nil || *cfg.API.UseSSL {
		t.Errorf("Expected use_ssl false, got %v", cfg.API.UseSSL)
	}
	if len(cfg.API.AllowedHosts) != 2 {
		t.Errorf("Expected two allowed hosts, got %v", cfg.API.AllowedHosts)
	}
	if cfg.Telemetry.LogLevel != "debug" || cfg.Telemetry.LogFormat != "json" {
		t.Errorf("Expected debug/json logging, got %s/%s", cfg.Telemetry.LogLevel, cfg.Telemetry.LogFormat)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.ListenAddress != "127.0.0.1:9464" {
		t.Errorf("Expected metrics enabled on 127.0.0.1:9464, got %+v", cfg.Telemetry.Metrics)
	}
	if cfg.Store.Path != "/tmp/jobs.db" {
		t.Errorf("Expected store path /tmp/jobs.db, got %q", cfg.Store.Path)
	}
}

func TestLoader_LoadKeepsDefaultsForMissingSections(t *testing.T) {
	path := writeConfigFile(t, `
api:
  hostname: platform.example.com
`)

	loader := NewLoader(zerolog.Nop())
	cfg, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}

	if cfg.API.UseSSL != nil {
		t.Errorf("Expected use_ssl to stay unset, got %v", *cfg.API.UseSSL)
	}
	if cfg.Telemetry.LogLevel != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.Telemetry.LogLevel)
	}
	if cfg.Telemetry.LogFormat != "console" {
		t.Errorf("Expected default log format console, got %q", cfg.Telemetry.LogFormat)
	}
	if cfg.Telemetry.Metrics.ListenAddress != ":9464" {
		t.Errorf("Expected default metrics address, got %q", cfg.Telemetry.Metrics.ListenAddress)
	}
}

func TestLoader_LoadMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "api: [not\na map")

	loader := NewLoader(zerolog.Nop())
	_, err := loader.Load(path)
	if err == nil {
		t.Fatal("Expected a parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse config YAML") {
		t.Errorf("Expected a parse error, got: %v", err)
	}
}

func TestLoader_LoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown log level", "telemetry:\n  log_level: verbose\n"},
		{"unknown log format", "telemetry:\n  log_format: xml\n"},
		{"unknown exporter", "telemetry:\n  tracing:\n    exporter: jaeger\n"},
		{"sampling rate above one", "telemetry:\n  tracing:\n    sampling_rate: 1.5\n"},
	}

	loader := NewLoader(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfigFile(t, tc.content)
			_, err := loader.Load(path)
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !strings.Contains(err.Error(), "config validation failed") {
				t.Errorf("Expected a validation error, got: %v", err)
			}
		})
	}
}

func TestLoader_LoadMissingFile(t *testing.T) {
	loader := NewLoader(zerolog.Nop())
	_, err := loader.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got: %v", err)
	}
}

func TestLoader_LoadOrDefault(t *testing.T) {
	loader := NewLoader(zerolog.Nop())

	cfg, err := loader.LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got: %v", err)
	}
	if cfg.Telemetry.LogLevel != "info" {
		t.Errorf("Expected default config, got %+v", cfg)
	}

	// A file that exists but fails to load is still an error
	broken := writeConfigFile(t, "telemetry:\n  log_level: verbose\n")
	if _, err := loader.LoadOrDefault(broken); err == nil {
		t.Error("Expected an error for an invalid existing file")
	}
}

func TestApplyEnvironment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Hostname = "from-file.example.com"
	cfg.API.AuthToken = "file-token"

	t.Setenv(api.EnvHostname, "from-env.example.com")
	t.Setenv(api.EnvAuthenticationToken, "env-token")
	t.Setenv(api.EnvUseSSL, "0")

	if err := ApplyEnvironment(cfg); err != nil {
		t.Fatalf("Expected the overlay to succeed, got: %v", err)
	}

	if cfg.API.Hostname != "from-env.example.com" {
		t.Errorf("Expected the environment hostname to win, got %q", cfg.API.Hostname)
	}
	if cfg.API.AuthToken != "env-token" {
		t.Errorf("Expected the environment token to win, got %q", cfg.API.AuthToken)
	}
	if cfg.API.UseSSL == nil || *cfg.API.UseSSL {
		t.Errorf("Expected use_ssl false from the environment, got %v", cfg.API.UseSSL)
	}
}

func TestApplyEnvironment_MalformedBool(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(api.EnvUseSSL, "sometimes")

	err := ApplyEnvironment(cfg)
	if err == nil {
		t.Fatal("Expected an error for a malformed boolean")
	}
	if !strings.Contains(err.Error(), "invalid boolean") {
		t.Errorf("Expected an invalid-boolean error, got: %v", err)
	}
}

func TestConfig_APIOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Hostname = "platform.example.com"
	cfg.API.AuthToken = "token"
	cfg.API.UseSSL = boolPtr(false)
	cfg.API.Timeout = "45s"

	opts, err := cfg.APIOptions()
	if err != nil {
		t.Fatalf("Expected the conversion to succeed, got: %v", err)
	}
	if opts.Hostname != "platform.example.com" || opts.AuthToken != "token" {
		t.Errorf("Expected connection settings carried over, got %+v", opts)
	}
	if opts.UseTLS == nil || *opts.UseTLS {
		t.Errorf("Expected UseTLS false, got %v", opts.UseTLS)
	}
	if opts.Timeout != 45*time.Second {
		t.Errorf("Expected a 45s timeout, got %v", opts.Timeout)
	}
}

func TestConfig_APIOptionsUnsetFields(t *testing.T) {
	opts, err := DefaultConfig().APIOptions()
	if err != nil {
		t.Fatalf("Expected the conversion to succeed, got: %v", err)
	}
	if opts.Hostname != "" || opts.UseTLS != nil || opts.Timeout != 0 {
		t.Errorf("Expected unset fields to stay unset, got %+v", opts)
	}
}

func TestConfig_APIOptionsBadTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Timeout = "very long"

	_, err := cfg.APIOptions()
	if err == nil {
		t.Fatal("Expected an error for a malformed timeout")
	}
	if !strings.Contains(err.Error(), "invalid api.timeout") {
		t.Errorf("Expected a timeout error, got: %v", err)
	}
}

func TestConfig_TelemetryConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.LogLevel = "debug"
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Tracing.Enabled = true
	cfg.Telemetry.Tracing.Exporter = "otlp"
	cfg.Telemetry.Tracing.Endpoint = "collector:4317"
	cfg.Telemetry.Tracing.SamplingRate = 0.25

	tc := cfg.TelemetryConfig("1.2.3")
	if tc.ServiceVersion != "1.2.3" {
		t.Errorf("Expected service version 1.2.3, got %q", tc.ServiceVersion)
	}
	if tc.Logging.Level != "debug" {
		t.Errorf("Expected debug logging, got %q", tc.Logging.Level)
	}
	if !tc.Metrics.Enabled {
		t.Error("Expected metrics enabled")
	}
	if !tc.Tracing.Enabled || tc.Tracing.Exporter != "otlp" || tc.Tracing.Endpoint != "collector:4317" {
		t.Errorf("Expected otlp tracing to collector:4317, got %+v", tc.Tracing)
	}
	if tc.Tracing.SamplingRate != 0.25 {
		t.Errorf("Expected sampling rate 0.25, got %v", tc.Tracing.SamplingRate)
	}

	if err := tc.Validate(); err != nil {
		t.Errorf("Expected the derived config to validate, got: %v", err)
	}
}

func TestConfig_StorePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/custom.db"

	path, err := cfg.StorePath()
	if err != nil || path != "/tmp/custom.db" {
		t.Errorf("Expected the configured path, got %q (%v)", path, err)
	}
}

func boolPtr(v bool) *bool {
	return &v
}
