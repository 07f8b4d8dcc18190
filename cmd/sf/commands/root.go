package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thomascherickal/strawberryfields/pkg/api"
	"github.com/thomascherickal/strawberryfields/pkg/config"
	"github.com/thomascherickal/strawberryfields/pkg/stores"
	"github.com/thomascherickal/strawberryfields/pkg/telemetry"
)

var (
	// Global flags
	configPath string
	hostname   string
	authToken  string
	useSSL     bool
	logLevel   string
	jsonOutput bool
)

// buildVersion is stamped into telemetry service metadata.
var buildVersion = "dev"

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sf",
		Short: "Strawberry Fields - photonic quantum job client",
		Long: `sf submits quantum circuits to the Xanadu cloud platform and tracks
their execution.

Features:
  - Typed job resources over the platform jobs API
  - Local SQLite ledger of every submission and status transition
  - Configuration from file, environment and flags
  - Optional Prometheus metrics and OpenTelemetry tracing`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&hostname, "hostname", "", "API server hostname")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "API authentication token")
	rootCmd.PersistentFlags().BoolVar(&useSSL, "use-ssl", true, "connect over https")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newSubmitCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newResultCommand())
	rootCmd.AddCommand(newCircuitCommand())
	rootCmd.AddCommand(newJobsCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}

// loadConfig resolves the effective configuration in increasing order of
// precedence: built-in defaults, the config file, environment variables, then
// command-line flags. It returns the config file path that was consulted.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	loader := config.NewLoader(log.Logger)

	var cfg *config.Config
	path := configPath
	if path != "" {
		loaded, err := loader.Load(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	} else {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = defaultPath
		loaded, err := loader.LoadOrDefault(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	if err := config.ApplyEnvironment(cfg); err != nil {
		return nil, "", err
	}

	flags := cmd.Flags()
	if flags.Changed("hostname") {
		cfg.API.Hostname = hostname
	}
	if flags.Changed("token") {
		cfg.API.AuthToken = authToken
	}
	if flags.Changed("use-ssl") {
		ssl := useSSL
		cfg.API.UseSSL = &ssl
	}
	if flags.Changed("log-level") {
		cfg.Telemetry.LogLevel = logLevel
	}

	return cfg, path, nil
}

// configureLogging applies the resolved telemetry settings to the global
// logger used by the commands themselves.
func configureLogging(cfg *config.Config) {
	if cfg.Telemetry.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	switch cfg.Telemetry.LogLevel {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	}
}

// session bundles what most commands need: the resolved configuration, the
// telemetry stack and a transport connected to the platform.
type session struct {
	cfg        *config.Config
	configFile string
	telemetry  *telemetry.Telemetry
	transport  *api.Transport
}

// newSession resolves configuration, brings up telemetry and connects a
// transport. Callers must close the session when done.
func newSession(cmd *cobra.Command) (*session, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	configureLogging(cfg)

	tel, err := telemetry.NewTelemetry(cfg.TelemetryConfig(buildVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	// Surface lifecycle events on the debug log so --log-level debug shows
	// the full submission timeline.
	tel.Events.Subscribe(func(event telemetry.Event) {
		log.Debug().
			Str("event", event.Type).
			Int64("job_id", event.JobID).
			Msg(event.Message)
	}, nil)

	opts, err := cfg.APIOptions()
	if err != nil {
		return nil, err
	}
	logger := tel.Logger.Zerolog()
	opts.Logger = &logger
	if cfg.Telemetry.Metrics.Enabled {
		opts.Metrics = tel.Metrics
	}
	if cfg.Telemetry.Tracing.Enabled {
		opts.Tracer = tel.Tracer
	}

	transport, err := api.NewTransport(opts)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:        cfg,
		configFile: path,
		telemetry:  tel,
		transport:  transport,
	}, nil
}

// close flushes and stops the telemetry stack. A fresh context is used so
// shutdown still completes after the command context is cancelled.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.telemetry.Shutdown(ctx); err != nil {
		log.Debug().Err(err).Msg("Telemetry shutdown failed")
	}
}

// openLedger opens the local submission ledger, creating the database and
// running migrations on first use.
func openLedger(ctx context.Context, cfg *config.Config) (*stores.SQLiteStore, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
