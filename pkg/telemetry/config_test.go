package telemetry

import (
	"strings"
	"testing"
)

func TestConfigValidate_Defaults(t *testing.T) {
	for name, cfg := range map[string]*Config{
		"default":     DefaultConfig(),
		"development": DevelopmentConfig(),
	} {
		if err := cfg.Validate(); err != nil {
			t.Errorf("Expected %s config to validate, got: %v", name, err)
		}
	}

	// Production exports over OTLP, which requires an endpoint.
	prod := ProductionConfig()
	prod.Tracing.Endpoint = "collector:4317"
	if err := prod.Validate(); err != nil {
		t.Errorf("Expected production config to validate, got: %v", err)
	}
}

func TestConfigValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name: "bad trace exporter",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger"
			},
			wantErr: "invalid trace exporter",
		},
		{
			name: "sampling rate out of range",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SamplingRate = 1.5
			},
			wantErr: "sampling rate",
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "otlp"
			},
			wantErr: "requires an endpoint",
		},
		{
			name: "metrics without address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ListenAddress = ""
			},
			wantErr: "listen address",
		},
		{
			name: "async events without buffer",
			mutate: func(c *Config) {
				c.Events.EnableAsync = true
				c.Events.BufferSize = 0
			},
			wantErr: "buffer size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
