package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ResourceManager drives the remote lifecycle of a single resource: it checks
// operation preconditions locally, performs the HTTP exchange, classifies the
// outcome and refreshes the resource fields from successful responses.
type ResourceManager struct {
	resource       *Resource
	transport      *Transport
	lastStatusCode int
}

func newResourceManager(transport *Transport, resource *Resource) *ResourceManager {
	return &ResourceManager{
		resource:  resource,
		transport: transport,
	}
}

// LastStatusCode returns the HTTP status of the most recent exchange, or 0
// when the last attempt never reached the server.
func (m *ResourceManager) LastStatusCode() int {
	return m.lastStatusCode
}

// Get fetches the resource from the server and replaces the local field
// values with the response. A non-empty identifier is appended to the
// resource path ("jobs" + "17" requests "jobs/17"); an empty identifier
// requests the path template itself, which is how sub-resources with the
// identifier baked into their path are fetched.
//
// The precondition is checked before any network activity: a resource that
// does not support fetching yields a method-not-supported error without a
// request being made.
func (m *ResourceManager) Get(ctx context.Context, identifier string) error {
	if !m.resource.Supports(OperationFetch) {
		return NewMethodNotSupportedError(
			fmt.Sprintf("%s does not support fetching", m.resource.Name()), nil).
			WithResource(m.resource.Name()).
			WithOperation(string(OperationFetch))
	}
	path := m.resource.PathTemplate()
	if identifier != "" {
		path = joinPath(path, identifier)
	}
	resp, err := m.transport.Get(ctx, path)
	return m.handleResponse(OperationFetch, resp, err)
}

// Create submits params as a new resource and replaces the local field values
// with the server's representation of what was created.
//
// Two preconditions are checked before any network activity: the resource
// must support creation, and it must not already carry an identifier. A
// second create on the same value is refused locally with an already-created
// error.
func (m *ResourceManager) Create(ctx context.Context, params map[string]interface{}) error {
	if !m.resource.Supports(OperationCreate) {
		return NewMethodNotSupportedError(
			fmt.Sprintf("%s does not support creation", m.resource.Name()), nil).
			WithResource(m.resource.Name()).
			WithOperation(string(OperationCreate))
	}
	if slot := m.resource.idSlot; slot != nil && slot.HasValue() {
		return NewAlreadyCreatedError("resource is already created", nil).
			WithResource(m.resource.Name()).
			WithOperation(string(OperationCreate))
	}
	resp, err := m.transport.Post(ctx, m.resource.PathTemplate(), params)
	return m.handleResponse(OperationCreate, resp, err)
}

// handleResponse converts a transport outcome into nil or a classified error.
// Every HTTP status the platform documents has an explicit branch:
//
//	200, 201        refresh fields, success
//	400             validation
//	401             authentication
//	409             conflict
//	500, 503, 504   server
//	anything else   unexpected status
//
// A transport-level failure becomes a transport error. The status code of the
// exchange is retained for inspection via LastStatusCode.
func (m *ResourceManager) handleResponse(op Operation, resp *Response, err error) error {
	if err != nil {
		m.lastStatusCode = 0
		var cerr *ClientError
		if errors.As(err, &cerr) {
			return cerr.WithResource(m.resource.Name()).WithOperation(string(op))
		}
		return NewTransportError("could not connect to server", err).
			WithResource(m.resource.Name()).
			WithOperation(string(op))
	}

	m.lastStatusCode = resp.StatusCode
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		data, jerr := resp.JSON()
		if jerr != nil {
			return NewServerError("could not decode response body", jerr).
				WithResource(m.resource.Name()).
				WithOperation(string(op)).
				WithStatusCode(resp.StatusCode)
		}
		m.refreshData(data)
		return nil
	default:
		return statusError(resp.StatusCode, resp.Body).
			WithResource(m.resource.Name()).
			WithOperation(string(op))
	}
}

// refreshData replaces every field from the response object. Fields missing
// from the response are cleared, so the local view always mirrors the latest
// server representation rather than accumulating stale values.
func (m *ResourceManager) refreshData(data map[string]interface{}) {
	for _, slot := range m.resource.fields {
		slot.Set(data[slot.Name()])
	}
}

// joinPath appends a path segment to base with exactly one separating slash.
func joinPath(base, segment string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(segment, "/")
}
