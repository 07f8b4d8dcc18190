// Package config provides the YAML configuration file for the sf CLI.
//
// # Overview
//
// The config package loads, validates, and watches the CLI configuration.
// It covers the settings a user keeps between invocations: connection
// details for the platform, observability knobs, and the location of the
// local submission ledger. One-off overrides come from environment
// variables and command-line flags, layered on top of the file in that
// order.
//
// # Resolution Order
//
// Settings resolve lowest to highest:
//
//  1. Built-in defaults (DefaultConfig)
//  2. The YAML config file
//  3. SF_API_* environment variables (ApplyEnvironment)
//  4. Command-line flags (applied by the CLI)
//
// The client package performs its own defaults/environment/options
// resolution; because the CLI passes fully resolved values as options,
// both layers agree on the outcome.
//
// # File Format
//
// The file lives at DefaultConfigPath (typically
// ~/.config/strawberryfields/sf.yaml) unless --config points elsewhere:
//
//	api:
//	  hostname: platform.example.com
//	  authentication_token: 071cdcce-9241-4965-93b4-bcdcf00e3b75
//	  use_ssl: true
//	  allowed_hosts:
//	    - platform.example.com
//	  timeout: 30s
//
//	telemetry:
//	  log_level: info
//	  log_format: console
//	  metrics:
//	    enabled: false
//	    listen_address: ":9464"
//	  tracing:
//	    enabled: false
//	    exporter: stdout
//
//	store:
//	  path: /home/user/.config/strawberryfields/jobs.db
//
// Every section is optional. Struct tags drive validation; a file that
// parses but carries an out-of-range value (an unknown log level, a
// malformed listen address) fails loading with a descriptive error.
//
// # Watching
//
// Watch re-reads the file whenever it changes on disk, with a short
// debounce so editors that write in bursts trigger one reload. The CLI
// uses this during long --wait polls to pick up rotated authentication
// tokens without restarting:
//
//	loader := config.NewLoader(logger)
//	err := loader.Watch(ctx, path, func(cfg *config.Config) {
//	    transport.SetAuthorizationHeader(cfg.API.AuthToken)
//	})
//
// # Thread Safety
//
// Loader methods may be called from any goroutine. The onChange callback
// runs on the watcher goroutine and must not block.
package config
