package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorClass represents the classification of a client error for
// programmatic handling and retry decisions.
type ErrorClass string

const (
	// ErrorClassConfiguration indicates invalid or incomplete client configuration.
	// Examples: missing hostname, hostname not in the allowed list, malformed
	// SF_API_USE_SSL value.
	ErrorClassConfiguration ErrorClass = "configuration"

	// ErrorClassTransport indicates a request that never produced an HTTP response.
	// Examples: connection refused, DNS failure, TLS handshake failure, timeout.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassMethodNotSupported indicates an operation the resource does not allow.
	ErrorClassMethodNotSupported ErrorClass = "method_not_supported"

	// ErrorClassAlreadyCreated indicates a create attempt on a resource that
	// already carries a server-assigned identifier.
	ErrorClassAlreadyCreated ErrorClass = "already_created"

	// ErrorClassValidation indicates the server rejected the request payload (HTTP 400).
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassAuthentication indicates missing or rejected credentials (HTTP 401).
	ErrorClassAuthentication ErrorClass = "authentication"

	// ErrorClassConflict indicates the request conflicts with remote state (HTTP 409).
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassServer indicates a server-side failure (HTTP 500, 503 or 504).
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUnexpectedStatus indicates a response status outside the
	// documented contract of the platform.
	ErrorClassUnexpectedStatus ErrorClass = "unexpected_status"

	// ErrorClassTypeCoercion indicates a raw field value that could not be
	// converted to the field's declared type.
	ErrorClassTypeCoercion ErrorClass = "type_coercion"

	// ErrorClassState indicates an operation attempted against a resource in
	// the wrong local state. Example: reloading a resource that has no
	// identifier field.
	ErrorClassState ErrorClass = "state"
)

// maxErrorBodyBytes caps how much of a response body is retained in error details.
const maxErrorBodyBytes = 1024

// ClientError represents a classified error with context about the resource
// and operation that produced it.
type ClientError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Resource is the resource name that caused the error, if applicable.
	Resource string `json:"resource,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// StatusCode is the HTTP status code of the response, if one was received.
	StatusCode int `json:"status_code,omitempty"`

	// Field is the field name involved in a coercion failure, if applicable.
	Field string `json:"field,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Class, e.Message)
	if e.Resource != "" && e.Operation != "" {
		fmt.Fprintf(&sb, " (resource=%s, operation=%s)", e.Resource, e.Operation)
	} else if e.Resource != "" {
		fmt.Fprintf(&sb, " (resource=%s)", e.Resource)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status=%d)", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %s", e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.StatusCode == t.StatusCode
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewTransportError creates a new transport error.
func NewTransportError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassTransport,
		Message: message,
		Err:     err,
	}
}

// NewMethodNotSupportedError creates a new method-not-supported error.
func NewMethodNotSupportedError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassMethodNotSupported,
		Message: message,
		Err:     err,
	}
}

// NewAlreadyCreatedError creates a new already-created error.
func NewAlreadyCreatedError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassAlreadyCreated,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassValidation,
		Message: message,
		Err:     err,
	}
}

// NewAuthenticationError creates a new authentication error.
func NewAuthenticationError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassAuthentication,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassConflict,
		Message: message,
		Err:     err,
	}
}

// NewServerError creates a new server error.
func NewServerError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassServer,
		Message: message,
		Err:     err,
	}
}

// NewUnexpectedStatusError creates a new unexpected-status error.
func NewUnexpectedStatusError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassUnexpectedStatus,
		Message: message,
		Err:     err,
	}
}

// NewTypeCoercionError creates a new type-coercion error carrying the field
// name and the raw value that failed to convert.
func NewTypeCoercionError(field string, raw interface{}, err error) *ClientError {
	e := &ClientError{
		Class:   ErrorClassTypeCoercion,
		Message: fmt.Sprintf("cannot coerce value for field %q", field),
		Field:   field,
		Err:     err,
	}
	return e.WithDetail("raw", raw)
}

// NewStateError creates a new state error.
func NewStateError(message string, err error) *ClientError {
	return &ClientError{
		Class:   ErrorClassState,
		Message: message,
		Err:     err,
	}
}

// WithResource adds resource context to an error.
func (e *ClientError) WithResource(resource string) *ClientError {
	e.Resource = resource
	return e
}

// WithOperation adds operation context to an error.
func (e *ClientError) WithOperation(operation string) *ClientError {
	e.Operation = operation
	return e
}

// WithStatusCode adds the HTTP status code to an error.
func (e *ClientError) WithStatusCode(status int) *ClientError {
	e.StatusCode = status
	return e
}

// WithDetail adds a detail field to the error context.
func (e *ClientError) WithDetail(key string, value interface{}) *ClientError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// statusError classifies a non-success HTTP status into a ClientError.
// The response body, when present, is retained (truncated) as a detail so
// callers can inspect what the server said.
func statusError(status int, body []byte) *ClientError {
	var e *ClientError
	switch status {
	case http.StatusBadRequest:
		e = NewValidationError("server rejected the request as invalid", nil)
	case http.StatusUnauthorized:
		e = NewAuthenticationError("server could not authenticate the request", nil)
	case http.StatusConflict:
		e = NewConflictError("request conflicts with the current remote state", nil)
	case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		e = NewServerError("server failed to process the request", nil)
	default:
		e = NewUnexpectedStatusError(fmt.Sprintf("server responded with unexpected status %d", status), nil)
	}
	e.StatusCode = status
	if detail := strings.TrimSpace(string(body)); detail != "" {
		if len(detail) > maxErrorBodyBytes {
			detail = detail[:maxErrorBodyBytes]
		}
		e.WithDetail("body", detail)
	}
	return e
}

// IsConfiguration returns true if the error is classified as a configuration error.
func IsConfiguration(err error) bool {
	return hasClass(err, ErrorClassConfiguration)
}

// IsTransport returns true if the error is classified as a transport error.
func IsTransport(err error) bool {
	return hasClass(err, ErrorClassTransport)
}

// IsMethodNotSupported returns true if the error is classified as method-not-supported.
func IsMethodNotSupported(err error) bool {
	return hasClass(err, ErrorClassMethodNotSupported)
}

// IsAlreadyCreated returns true if the error is classified as already-created.
func IsAlreadyCreated(err error) bool {
	return hasClass(err, ErrorClassAlreadyCreated)
}

// IsValidation returns true if the error is classified as a validation error.
func IsValidation(err error) bool {
	return hasClass(err, ErrorClassValidation)
}

// IsAuthentication returns true if the error is classified as an authentication error.
func IsAuthentication(err error) bool {
	return hasClass(err, ErrorClassAuthentication)
}

// IsConflict returns true if the error is classified as a conflict.
func IsConflict(err error) bool {
	return hasClass(err, ErrorClassConflict)
}

// IsServer returns true if the error is classified as a server error.
func IsServer(err error) bool {
	return hasClass(err, ErrorClassServer)
}

// IsUnexpectedStatus returns true if the error is classified as unexpected-status.
func IsUnexpectedStatus(err error) bool {
	return hasClass(err, ErrorClassUnexpectedStatus)
}

// IsTypeCoercion returns true if the error is classified as a type-coercion error.
func IsTypeCoercion(err error) bool {
	return hasClass(err, ErrorClassTypeCoercion)
}

// IsState returns true if the error is classified as a state error.
func IsState(err error) bool {
	return hasClass(err, ErrorClassState)
}

// IsRetryable returns true if the error can be retried.
// Transport and server errors are retryable; everything else requires a
// change on the caller's side first.
func IsRetryable(err error) bool {
	return IsTransport(err) || IsServer(err)
}

func hasClass(err error, class ErrorClass) bool {
	var e *ClientError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// StatusCodeOf extracts the HTTP status code recorded on a classified error,
// or 0 when the error carries none.
func StatusCodeOf(err error) int {
	var e *ClientError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
