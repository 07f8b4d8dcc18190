package api

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/thomascherickal/strawberryfields/pkg/telemetry"
)

// Environment variables consulted when building a transport. Values found in
// the environment override built-in defaults and are in turn overridden by
// explicit Options fields.
const (
	// EnvAuthenticationToken carries the platform API token.
	EnvAuthenticationToken = "SF_API_AUTHENTICATION_TOKEN"

	// EnvHostname carries the hostname of the platform API server.
	EnvHostname = "SF_API_API_HOSTNAME"

	// EnvUseSSL toggles TLS for the connection. It is parsed with
	// strconv.ParseBool, so "1", "t", "true", "0", "f" and "false" are the
	// accepted spellings.
	EnvUseSSL = "SF_API_USE_SSL"
)

// DefaultHostname is the hostname used when neither the environment nor the
// options provide one.
const DefaultHostname = "localhost"

// DefaultAllowedHosts is the hostname allow-list used when Options does not
// supply one. Connections to hosts outside the active list are refused at
// construction time.
var DefaultAllowedHosts = []string{"localhost", "127.0.0.1"}

// Options configures a Transport. The zero value is usable and resolves to a
// TLS connection against DefaultHostname, with credentials taken from the
// environment when present.
type Options struct {
	// Hostname is the API server host, optionally with a port ("host:port").
	Hostname string

	// AuthToken is the platform API token. When set, an Authorization header
	// is installed on the transport at construction time.
	AuthToken string

	// UseTLS selects https (true) or http (false). Leave nil to accept the
	// environment value or the default (TLS on).
	UseTLS *bool

	// AllowedHosts replaces DefaultAllowedHosts when non-empty. Entries may
	// include a port, which is ignored during comparison.
	AllowedHosts []string

	// Timeout bounds each HTTP request. Zero means no client-side timeout;
	// use a context deadline for per-call control.
	Timeout time.Duration

	// HTTPClient replaces the default client, e.g. for tests or custom TLS
	// configuration. Timeout is ignored when HTTPClient is set.
	HTTPClient *http.Client

	// Logger receives transport-level log events. Nil disables logging.
	Logger *zerolog.Logger

	// Metrics, when set, records request counts, latencies and connection
	// failures.
	Metrics *telemetry.Metrics

	// Tracer, when set, opens a span around every request.
	Tracer *telemetry.Tracer
}

// Bool returns a pointer to v, for filling Options.UseTLS inline.
func Bool(v bool) *bool {
	return &v
}

// resolvedConfig is the outcome of merging defaults, environment values and
// explicit options.
type resolvedConfig struct {
	hostname     string
	authToken    string
	useTLS       bool
	allowedHosts []string
	timeout      time.Duration
}

// resolveConfig merges the three configuration sources in increasing order of
// precedence: built-in defaults, then environment variables, then explicit
// Options fields. It validates the final hostname against the allow-list.
func resolveConfig(opts Options) (resolvedConfig, error) {
	cfg := resolvedConfig{
		hostname:     DefaultHostname,
		useTLS:       true,
		allowedHosts: DefaultAllowedHosts,
	}

	if v, ok := os.LookupEnv(EnvAuthenticationToken); ok {
		cfg.authToken = v
	}
	if v, ok := os.LookupEnv(EnvHostname); ok {
		cfg.hostname = v
	}
	if v, ok := os.LookupEnv(EnvUseSSL); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return resolvedConfig{}, NewConfigurationError(
				fmt.Sprintf("invalid boolean %q in %s", v, EnvUseSSL), err)
		}
		cfg.useTLS = b
	}

	if opts.Hostname != "" {
		cfg.hostname = opts.Hostname
	}
	if opts.AuthToken != "" {
		cfg.authToken = opts.AuthToken
	}
	if opts.UseTLS != nil {
		cfg.useTLS = *opts.UseTLS
	}
	if len(opts.AllowedHosts) > 0 {
		cfg.allowedHosts = opts.AllowedHosts
	}
	cfg.timeout = opts.Timeout

	if cfg.hostname == "" {
		return resolvedConfig{}, NewConfigurationError("hostname parameter is missing", nil)
	}
	if !hostAllowed(cfg.hostname, cfg.allowedHosts) {
		return resolvedConfig{}, NewConfigurationError(
			fmt.Sprintf("hostname %q is not in the allowed hostname list", cfg.hostname), nil)
	}
	return cfg, nil
}

// hostAllowed reports whether hostname matches an allow-list entry. Ports are
// stripped from both sides and the comparison is case-insensitive.
func hostAllowed(hostname string, allowed []string) bool {
	host := stripPort(hostname)
	for _, entry := range allowed {
		if strings.EqualFold(host, stripPort(entry)) {
			return true
		}
	}
	return false
}

func stripPort(hostname string) string {
	if host, _, err := net.SplitHostPort(hostname); err == nil {
		return host
	}
	return hostname
}
