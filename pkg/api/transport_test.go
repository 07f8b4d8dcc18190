package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// newTestTransport builds an insecure transport pointed at a test server.
func newTestTransport(t *testing.T, srv *httptest.Server, opts Options) *Transport {
	t.Helper()
	clearAPIEnv(t)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	opts.Hostname = u.Host
	opts.UseTLS = Bool(false)

	tr, err := NewTransport(opts)
	if err != nil {
		t.Fatalf("Failed to build transport: %v", err)
	}
	return tr
}

func TestTransport_Resolve(t *testing.T) {
	clearAPIEnv(t)
	tr, err := NewTransport(Options{Hostname: "localhost"})
	if err != nil {
		t.Fatalf("Failed to build transport: %v", err)
	}

	cases := []struct {
		path string
		want string
	}{
		{"jobs", "https://localhost/jobs"},
		{"jobs/17", "https://localhost/jobs/17"},
		{"jobs/17/result", "https://localhost/jobs/17/result"},
		{"/v2/jobs", "https://localhost/v2/jobs"},
	}

	for _, tc := range cases {
		got := tr.resolve(tc.path).String()
		if got != tc.want {
			t.Errorf("resolve(%q): expected %q, got %q", tc.path, tc.want, got)
		}
	}

	if tr.BaseURL() != "https://localhost" {
		t.Errorf("Expected base URL https://localhost, got %q", tr.BaseURL())
	}
}

func TestTransport_AuthorizationHeaderInstalledAtConstruction(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv, Options{AuthToken: "secret-token"})

	if _, err := tr.Get(context.Background(), "jobs"); err != nil {
		t.Fatalf("Expected request to succeed, got: %v", err)
	}
	if got != "secret-token" {
		t.Errorf("Expected Authorization header %q, got %q", "secret-token", got)
	}
}

func TestTransport_SetAuthorizationHeaderReplacesToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv, Options{AuthToken: "before"})
	tr.SetAuthorizationHeader("after")

	if _, err := tr.Get(context.Background(), "jobs"); err != nil {
		t.Fatalf("Expected request to succeed, got: %v", err)
	}
	if got != "after" {
		t.Errorf("Expected rotated token %q, got %q", "after", got)
	}
}

func TestTransport_ConcurrentHeaderUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv, Options{AuthToken: "initial"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.SetAuthorizationHeader(fmt.Sprintf("token-%d", n))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = tr.Get(context.Background(), "jobs")
		}()
	}
	wg.Wait()

	tr.SetAuthorizationHeader("final")
	snapshot := tr.headerSnapshot()
	if snapshot.Get("Authorization") != "final" {
		t.Errorf("Expected final token to win, got %q", snapshot.Get("Authorization"))
	}
}

func TestTransport_PostSendsJSON(t *testing.T) {
	var (
		contentType string
		payload     map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": 1}`)
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv, Options{})

	resp, err := tr.Post(context.Background(), "jobs", map[string]interface{}{"circuit": "fock"})
	if err != nil {
		t.Fatalf("Expected request to succeed, got: %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("Expected application/json content type, got %q", contentType)
	}
	if payload["circuit"] != "fock" {
		t.Errorf("Expected circuit in payload, got %v", payload)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
}

func TestTransport_ErrorStatusIsStillAResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "boom"}`)
	}))
	defer srv.Close()

	tr := newTestTransport(t, srv, Options{})

	resp, err := tr.Get(context.Background(), "jobs/1")
	if err != nil {
		t.Fatalf("Expected a response, got error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", resp.StatusCode)
	}
	if !bytes.Contains(resp.Body, []byte("boom")) {
		t.Errorf("Expected body to be readable, got %q", resp.Body)
	}
}

func TestTransport_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tr := newTestTransport(t, srv, Options{})
	srv.Close()

	resp, err := tr.Get(context.Background(), "jobs")
	if resp != nil {
		t.Errorf("Expected no response, got %+v", resp)
	}
	if err == nil {
		t.Fatal("Expected an error for a closed server")
	}

	var failure *ConnectionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("Expected a *ConnectionFailure, got %T", err)
	}
	if failure.Method != http.MethodGet {
		t.Errorf("Expected method GET on failure, got %q", failure.Method)
	}
	if !strings.Contains(err.Error(), "could not connect to server") {
		t.Errorf("Unexpected failure message: %q", err.Error())
	}
}

func TestTransport_InsecureWarning(t *testing.T) {
	clearAPIEnv(t)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	_, err := NewTransport(Options{
		Hostname: "localhost",
		UseTLS:   Bool(false),
		Logger:   &logger,
	})
	if err != nil {
		t.Fatalf("Expected transport construction to succeed, got: %v", err)
	}

	if !strings.Contains(buf.String(), "Connecting insecurely to API server") {
		t.Errorf("Expected an insecure connection warning, got: %q", buf.String())
	}
}

func TestTransport_NoWarningWhenSecure(t *testing.T) {
	clearAPIEnv(t)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	_, err := NewTransport(Options{
		Hostname: "localhost",
		Logger:   &logger,
	})
	if err != nil {
		t.Fatalf("Expected transport construction to succeed, got: %v", err)
	}

	if strings.Contains(buf.String(), "insecurely") {
		t.Errorf("Expected no warning for a TLS connection, got: %q", buf.String())
	}
}

func TestResponse_JSON(t *testing.T) {
	resp := &Response{Body: []byte(`{"id": 17, "status": "queued"}`)}

	data, err := resp.JSON()
	if err != nil {
		t.Fatalf("Expected body to decode, got: %v", err)
	}
	if data["status"] != "queued" {
		t.Errorf("Expected status queued, got %v", data["status"])
	}

	bad := &Response{Body: []byte("not json")}
	if _, err := bad.JSON(); err == nil {
		t.Error("Expected a decode error for a malformed body")
	}
}
