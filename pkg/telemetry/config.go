package telemetry

import (
	"fmt"
	"time"
)

// Config contains the telemetry configuration for the client.
type Config struct {
	// ServiceName is the name reported with traces and metrics.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Environment specifies the deployment environment (development, production).
	Environment string

	// Logging contains logging configuration.
	Logging LoggingConfig

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig

	// Events contains event publishing configuration.
	Events EventsConfig
}

// LoggingConfig configures the zerolog-based structured logger.
type LoggingConfig struct {
	// Level is the minimum level to emit: trace, debug, info, warn, error, fatal.
	Level string

	// Format selects the output encoding: "json" or "console".
	Format string

	// Output selects the destination: "stdout", "stderr" or a file path.
	Output string

	// EnableCaller adds the calling file and line to each entry.
	EnableCaller bool

	// EnableSampling rate-limits repetitive entries.
	EnableSampling bool

	// SamplingInitial is how many entries pass per second before sampling kicks in.
	SamplingInitial int

	// SamplingThereafter is how many entries pass per second once sampling.
	SamplingThereafter int

	// TimeFormat selects the timestamp encoding: "rfc3339", "unix" or "unixms".
	TimeFormat string
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool

	// Exporter selects where spans go: "otlp", "stdout" or "none".
	Exporter string

	// Endpoint is the OTLP collector address (host:port).
	Endpoint string

	// SamplingRate is the fraction of traces to sample, 0.0 to 1.0.
	SamplingRate float64

	// MaxExportBatchSize caps the spans sent per export.
	MaxExportBatchSize int

	// ExportTimeout bounds each export attempt.
	ExportTimeout time.Duration

	// Headers are added to every export request, e.g. for collector auth.
	Headers map[string]string

	// Insecure disables TLS on the exporter connection.
	Insecure bool
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool

	// ListenAddress is where the metrics endpoint is served.
	ListenAddress string

	// Path is the HTTP path of the metrics endpoint.
	Path string

	// Namespace prefixes every metric name.
	Namespace string

	// DefaultHistogramBuckets overrides the request duration buckets.
	DefaultHistogramBuckets []float64
}

// EventsConfig configures the event publisher.
type EventsConfig struct {
	// Enabled turns event publishing on.
	Enabled bool

	// BufferSize is the channel capacity used in async mode.
	BufferSize int

	// EnableAsync delivers events from a background goroutine instead of
	// inline from Publish.
	EnableAsync bool
}

// DefaultConfig returns the configuration a CLI invocation starts from:
// console logging to stderr, tracing and metrics off, synchronous events.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "strawberryfields",
		ServiceVersion: "dev",
		Environment:    "development",
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "console",
			Output:             "stderr",
			EnableCaller:       false,
			EnableSampling:     false,
			SamplingInitial:    100,
			SamplingThereafter: 100,
			TimeFormat:         "rfc3339",
		},
		Tracing: TracingConfig{
			Enabled:            false,
			Exporter:           "stdout",
			SamplingRate:       1.0,
			MaxExportBatchSize: 512,
			ExportTimeout:      30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9464",
			Path:          "/metrics",
			Namespace:     "sf",
		},
		Events: EventsConfig{
			Enabled:     true,
			BufferSize:  256,
			EnableAsync: false,
		},
	}
}

// DevelopmentConfig returns a configuration for local debugging: verbose
// logging with caller information and pretty-printed stdout traces.
func DevelopmentConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.EnableCaller = true
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "stdout"
	return cfg
}

// ProductionConfig returns a configuration for long-running deployments:
// JSON logs with sampling, OTLP traces at 10% and the metrics endpoint on.
func ProductionConfig() *Config {
	cfg := DefaultConfig()
	cfg.Environment = "production"
	cfg.Logging.Format = "json"
	cfg.Logging.Output = "stdout"
	cfg.Logging.EnableSampling = true
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.SamplingRate = 0.1
	cfg.Metrics.Enabled = true
	cfg.Events.EnableAsync = true
	return cfg
}

// Validate checks the configuration for contradictions and unknown values.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "otlp", "stdout", "none":
		default:
			return fmt.Errorf("invalid trace exporter: %s", c.Tracing.Exporter)
		}
		if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
			return fmt.Errorf("sampling rate must be between 0.0 and 1.0, got %f", c.Tracing.SamplingRate)
		}
		if c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
			return fmt.Errorf("otlp exporter requires an endpoint")
		}
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics listen address is required when metrics are enabled")
	}

	if c.Events.Enabled && c.Events.EnableAsync && c.Events.BufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive in async mode, got %d", c.Events.BufferSize)
	}

	return nil
}
