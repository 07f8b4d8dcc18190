// Package api provides typed client bindings for the Strawberry Fields
// quantum compute platform's jobs API.
//
// # Overview
//
// The package is organized around three cooperating pieces:
//
//  1. Transport - Synchronous JSON-over-HTTP exchanges with the platform
//  2. Resource  - A declarative description of one addressable entity
//  3. ResourceManager - The lifecycle driver that fetches and creates resources
//
// Concrete bindings (Job, JobResult, JobCircuit) are thin declarations on top
// of this machinery: each one names its request path, the operations it
// supports and the typed fields of its server representation. Differences in
// behavior between resources are data in a capability table, not subtypes.
//
// # Transport
//
// A Transport owns the resolved connection settings and shared request
// headers. Configuration is merged from three sources in increasing order of
// precedence: built-in defaults, environment variables and explicit Options.
//
//	SF_API_AUTHENTICATION_TOKEN   platform API token
//	SF_API_API_HOSTNAME           API server hostname
//	SF_API_USE_SSL                "true" or "false"
//
// The hostname must appear in an allow-list (DefaultAllowedHosts unless
// overridden), which keeps credentials from being sent to arbitrary servers
// through a misconfigured environment. Construction fails with a
// configuration error otherwise.
//
// Transport.Get and Transport.Post distinguish two outcomes rigorously: a
// *Response when the server answered with any status code at all, and a
// *ConnectionFailure when the request never completed. No response object
// ever coexists with an error.
//
// # Fields
//
// Field values arrive as untyped JSON and are stored raw. Conversion to the
// declared Go type happens on read and is a pure function of the raw value,
// so a payload the server sends in an unexpected shape surfaces as a
// type-coercion error at the access site while the raw value stays
// inspectable:
//
//	status, err := job.Status()
//	if api.IsTypeCoercion(err) {
//	    raw := job.Resource().Field("status").Raw()
//	    // ...
//	}
//
// A field missing from a response (or sent as JSON null) is absent: it reads
// as the type's zero value with no error.
//
// # Lifecycle
//
// Creating and polling a job:
//
//	transport, err := api.NewTransport(api.Options{
//	    Hostname:  "localhost",
//	    AuthToken: token,
//	})
//	if err != nil {
//	    return err
//	}
//
//	job := api.NewJob(transport)
//	if err := job.Create(ctx, map[string]interface{}{"circuit": circuit}); err != nil {
//	    return err
//	}
//
//	id, _ := job.ID()
//	for {
//	    if err := job.Reload(ctx); err != nil {
//	        return err
//	    }
//	    status, _ := job.Status()
//	    if api.IsTerminalJobStatus(status) {
//	        break
//	    }
//	    time.Sleep(pollInterval)
//	}
//
//	result, err := job.Result()
//	if err != nil {
//	    return err
//	}
//	if err := result.Fetch(ctx); err != nil {
//	    return err
//	}
//
// Preconditions are enforced locally, before any network traffic: creating a
// job that already has an id yields an already-created error, and fetching a
// resource that does not support fetching yields a method-not-supported
// error, in both cases without a request being made.
//
// # Error Classification
//
// Every failure is a *ClientError carrying a class, and every HTTP status the
// platform documents maps to exactly one class:
//
//	400             validation
//	401             authentication
//	409             conflict
//	500, 503, 504   server
//	other           unexpected_status
//
// Failures that never reached the server are transport errors; local
// precondition and state failures have their own classes. Use the predicate
// helpers to branch:
//
//	if api.IsAuthentication(err) {
//	    // prompt for a new token
//	}
//	if api.IsRetryable(err) {
//	    // transport and server errors may succeed on retry
//	}
//
// # Thread Safety
//
// Transport is safe for concurrent use; SetAuthorizationHeader may be called
// while requests are in flight and affects only requests started afterwards.
// Individual resources are not synchronized: a Job and its fields belong to
// one goroutine at a time.
package api
