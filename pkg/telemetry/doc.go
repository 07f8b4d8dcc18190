// Package telemetry provides observability instrumentation for the
// Strawberry Fields client.
//
// The package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), metrics (Prometheus) and job lifecycle events into a
// unified system that the API transport and the CLI share.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry spans around every API request
//  3. Metrics Collection - Prometheus metrics for request and job activity
//  4. Event Publishing - Job lifecycle events for subscribers
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with field helpers for the
// client domain:
//
//	logger := tel.Logger.NewComponentLogger("transport")
//	logger = logger.WithJobID(1234).WithHost("localhost")
//	logger.Info("Polling job status")
//	logger.WithError(err).Error("Request failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
// Each API request runs inside a client span named after its method:
//
//	ctx, span := tel.Tracer.StartRequestSpan(ctx, "GET", "/jobs/17")
//	defer span.End()
//
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP/gRPC (production), stdout (development), none.
//
// # Metrics
//
// Prometheus metrics track client behavior:
//
//	sf_api_requests_total{method,path,status}
//	sf_api_request_duration_seconds{method,path}
//	sf_api_connection_failures_total{host}
//	sf_jobs_submitted_total
//	sf_errors_by_class_total{class}
//
// Request paths are reduced to their template form ("jobs/:id/result") so
// job identifiers do not explode label cardinality. Metrics are exposed via
// HTTP when enabled (default :9464/metrics).
//
// # Event Publishing
//
// The event publisher delivers job lifecycle events to subscribers. Delivery
// is synchronous by default, which keeps ordering deterministic for a CLI;
// async buffering is available for long-running use:
//
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("%s: %s\n", event.Type, event.Message)
//	}, telemetry.FilterByJobID(jobID))
//
//	_ = tel.Events.PublishJobSubmitted(jobID, status)
//
// Event filters: FilterByLevel, FilterByType, FilterByJobID
//
// # Configuration
//
// Pre-configured setups cover the common environments:
//
//	cfg := telemetry.DefaultConfig()     // CLI: console logs, no exporters
//	cfg := telemetry.DevelopmentConfig() // verbose logs, stdout traces
//	cfg := telemetry.ProductionConfig()  // JSON logs, OTLP traces, metrics on
//
// # Graceful Shutdown
//
// Always shut down telemetry to flush pending spans and drain buffered
// events:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("telemetry shutdown error: %v", err)
//	}
package telemetry
