package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/thomascherickal/strawberryfields/pkg/telemetry"
)

// Response is the outcome of a request that reached the server and produced
// an HTTP response, regardless of status code.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the raw response body, fully read.
	Body []byte

	// Header holds the response headers.
	Header http.Header
}

// JSON decodes the response body as a JSON object.
func (r *Response) JSON() (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(r.Body, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// ConnectionFailure reports a request that never produced an HTTP response:
// connection refused, DNS failure, TLS failure, timeout, or a body that could
// not be read to completion. It is the only error type returned by
// Transport.Get and Transport.Post.
type ConnectionFailure struct {
	// Method is the HTTP method of the failed request.
	Method string

	// URL is the fully resolved request URL.
	URL string

	// Err is the underlying network error.
	Err error
}

// Error implements the error interface.
func (e *ConnectionFailure) Error() string {
	return fmt.Sprintf("could not connect to server (%v)", e.Err)
}

// Unwrap returns the underlying network error.
func (e *ConnectionFailure) Unwrap() error {
	return e.Err
}

// Transport performs synchronous JSON requests against the platform API.
// It owns the resolved connection settings and the shared request headers.
// All methods are safe for concurrent use.
type Transport struct {
	hostname string
	useTLS   bool
	baseURL  *url.URL
	client   *http.Client
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer

	mu      sync.RWMutex
	headers http.Header
}

// NewTransport resolves the configuration sources (defaults, environment,
// explicit options), validates the hostname against the allow-list and
// returns a ready transport. When a token is present it is installed as the
// Authorization header immediately, so authenticated calls work without any
// further setup. A warning is logged when TLS is disabled.
func NewTransport(opts Options) (*Transport, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	scheme := "https"
	if !cfg.useTLS {
		scheme = "http"
		logger.Warn().Str("hostname", cfg.hostname).Msg("Connecting insecurely to API server")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.timeout}
	}

	t := &Transport{
		hostname: cfg.hostname,
		useTLS:   cfg.useTLS,
		baseURL:  &url.URL{Scheme: scheme, Host: cfg.hostname, Path: "/"},
		client:   client,
		logger:   logger,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		headers:  http.Header{},
	}
	if cfg.authToken != "" {
		t.SetAuthorizationHeader(cfg.authToken)
	}
	return t, nil
}

// Hostname returns the resolved API server host.
func (t *Transport) Hostname() string {
	return t.hostname
}

// UseTLS reports whether the transport connects over https.
func (t *Transport) UseTLS() bool {
	return t.useTLS
}

// BaseURL returns the root URL requests are resolved against.
func (t *Transport) BaseURL() string {
	return strings.TrimSuffix(t.baseURL.String(), "/")
}

// SetAuthorizationHeader installs or replaces the Authorization header used
// by every subsequent request. The token is sent as-is.
func (t *Transport) SetAuthorizationHeader(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.headers.Set("Authorization", token)
}

// headerSnapshot returns a copy of the shared headers so an in-flight request
// is not affected by concurrent header updates.
func (t *Transport) headerSnapshot() http.Header {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.headers.Clone()
}

// resolve joins path onto the base URL. The base is treated as a directory,
// so relative paths append ("jobs" resolves to "/jobs", "jobs/1/result" to
// "/jobs/1/result") and absolute paths replace.
func (t *Transport) resolve(path string) *url.URL {
	base := *t.baseURL
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(&url.URL{Path: path})
}

// Get performs a GET request against path. The returned error, when non-nil,
// is always a *ConnectionFailure; any response from the server, success or
// not, arrives as a *Response.
func (t *Transport) Get(ctx context.Context, path string) (*Response, error) {
	return t.do(ctx, http.MethodGet, path, nil)
}

// Post serializes payload as JSON and performs a POST request against path.
// Like Get, a server response of any status is a *Response and the error is
// reserved for requests that never completed.
func (t *Transport) Post(ctx context.Context, path string, payload interface{}) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewTransportError("could not encode request payload", err)
	}
	return t.do(ctx, http.MethodPost, path, body)
}

func (t *Transport) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	u := t.resolve(path)

	var span trace.Span
	if t.tracer != nil {
		ctx, span = t.tracer.StartRequestSpan(ctx, method, u.Path)
		defer span.End()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, NewTransportError("could not build request", err)
	}
	req.Header = t.headerSnapshot()
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		failure := &ConnectionFailure{Method: method, URL: u.String(), Err: err}
		t.recordFailure(span, failure)
		return nil, failure
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		failure := &ConnectionFailure{Method: method, URL: u.String(), Err: err}
		t.recordFailure(span, failure)
		return nil, failure
	}

	duration := time.Since(start)
	if t.metrics != nil {
		t.metrics.RecordRequest(method, u.Path, resp.StatusCode, duration)
	}
	if span != nil {
		telemetry.SetAttributes(span, telemetry.AttrHTTPStatus.Int(resp.StatusCode))
		telemetry.RecordSuccess(span)
	}
	t.logger.Debug().
		Str("method", method).
		Str("path", u.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("Request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Header:     resp.Header,
	}, nil
}

func (t *Transport) recordFailure(span trace.Span, failure *ConnectionFailure) {
	if t.metrics != nil {
		t.metrics.RecordConnectionFailure(t.hostname)
	}
	if span != nil {
		telemetry.RecordError(span, failure)
	}
	t.logger.Warn().
		Err(failure.Err).
		Str("method", failure.Method).
		Str("url", failure.URL).
		Msg("Could not connect to server")
}
