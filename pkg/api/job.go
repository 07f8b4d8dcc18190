package api

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Job statuses reported by the platform.
const (
	JobStatusOpen      = "open"
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusComplete  = "complete"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// IsTerminalJobStatus reports whether status is one the platform never
// transitions out of.
func IsTerminalJobStatus(status string) bool {
	switch status {
	case JobStatusComplete, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Job is the client view of a quantum program submitted for execution. A zero
// job (fresh from NewJob) supports Create; once it carries a server-assigned
// id it supports Fetch and Reload, and its result and circuit sub-resources
// become addressable.
type Job struct {
	resource  *Resource
	transport *Transport

	id          *Field[int64]
	status      *Field[string]
	resultURL   *Field[string]
	circuitURL  *Field[string]
	createdAt   *Field[time.Time]
	startedAt   *Field[time.Time]
	finishedAt  *Field[time.Time]
	runningTime *Field[string]
}

// NewJob creates an unsubmitted job bound to transport.
func NewJob(transport *Transport) *Job {
	j := &Job{
		transport:   transport,
		id:          NewField("id", CoerceInt64),
		status:      NewField("status", CoerceString),
		resultURL:   NewField("result_url", CoerceString),
		circuitURL:  NewField("circuit_url", CoerceString),
		createdAt:   NewField("created_at", CoerceTime),
		startedAt:   NewField("started_at", CoerceTime),
		finishedAt:  NewField("finished_at", CoerceTime),
		runningTime: NewField("running_time", CoerceString),
	}
	j.resource = NewResource(transport, "job", "jobs",
		[]Operation{OperationFetch, OperationCreate},
		[]FieldSlot{
			j.id,
			j.status,
			j.resultURL,
			j.circuitURL,
			j.createdAt,
			j.startedAt,
			j.finishedAt,
			j.runningTime,
		})
	return j
}

// Resource returns the underlying resource binding.
func (j *Job) Resource() *Resource {
	return j.resource
}

// Create submits params as a new job. On success the job's fields hold the
// server representation, including the assigned id and initial status.
func (j *Job) Create(ctx context.Context, params map[string]interface{}) error {
	if err := j.resource.Manager().Create(ctx, params); err != nil {
		return err
	}
	if m := j.transport.metrics; m != nil {
		m.RecordJobSubmitted()
	}
	return nil
}

// Fetch retrieves the job with the given id and replaces all local fields.
func (j *Job) Fetch(ctx context.Context, id int64) error {
	return j.resource.Manager().Get(ctx, strconv.FormatInt(id, 10))
}

// Reload refetches the job using its stored id.
func (j *Job) Reload(ctx context.Context) error {
	return j.resource.Reload(ctx)
}

// HasID reports whether the job carries a usable server-assigned id.
func (j *Job) HasID() bool {
	_, ok := identifierString(j.id)
	return ok
}

// ID returns the server-assigned job id, or 0 when the job has not been
// created or fetched yet.
func (j *Job) ID() (int64, error) {
	return j.id.Value()
}

// Status returns the last known job status.
func (j *Job) Status() (string, error) {
	return j.status.Value()
}

// ResultURL returns the server-provided URL of the job result.
func (j *Job) ResultURL() (string, error) {
	return j.resultURL.Value()
}

// CircuitURL returns the server-provided URL of the submitted circuit.
func (j *Job) CircuitURL() (string, error) {
	return j.circuitURL.Value()
}

// CreatedAt returns the submission timestamp.
func (j *Job) CreatedAt() (time.Time, error) {
	return j.createdAt.Value()
}

// StartedAt returns the execution start timestamp.
func (j *Job) StartedAt() (time.Time, error) {
	return j.startedAt.Value()
}

// FinishedAt returns the execution end timestamp.
func (j *Job) FinishedAt() (time.Time, error) {
	return j.finishedAt.Value()
}

// RunningTime returns the reported execution duration, as sent by the server.
func (j *Job) RunningTime() (string, error) {
	return j.runningTime.Value()
}

// Result returns the result sub-resource of this job. The job must carry an
// id; the sub-resource path embeds it at construction time.
func (j *Job) Result() (*JobResult, error) {
	id, ok := identifierString(j.id)
	if !ok {
		return nil, NewStateError("job has no id; create or fetch it first", nil).
			WithResource("job")
	}
	return newJobResultForPath(j.transport, id), nil
}

// Circuit returns the circuit sub-resource of this job. The job must carry an
// id; the sub-resource path embeds it at construction time.
func (j *Job) Circuit() (*JobCircuit, error) {
	id, ok := identifierString(j.id)
	if !ok {
		return nil, NewStateError("job has no id; create or fetch it first", nil).
			WithResource("job")
	}
	return newJobCircuitForPath(j.transport, id), nil
}

// JobResult is the read-only result of a finished job. It is fetched from its
// own endpoint because result payloads can be orders of magnitude larger than
// the job record itself.
type JobResult struct {
	resource *Resource
	result   *Field[interface{}]
}

// NewJobResult creates the result sub-resource for the job with the given id.
func NewJobResult(transport *Transport, jobID int64) *JobResult {
	return newJobResultForPath(transport, strconv.FormatInt(jobID, 10))
}

func newJobResultForPath(transport *Transport, jobID string) *JobResult {
	r := &JobResult{
		result: NewField("result", CoerceJSON),
	}
	r.resource = NewResource(transport, "job result",
		fmt.Sprintf("jobs/%s/result", jobID),
		[]Operation{OperationFetch},
		[]FieldSlot{r.result})
	return r
}

// Resource returns the underlying resource binding.
func (r *JobResult) Resource() *Resource {
	return r.resource
}

// Fetch retrieves the result payload.
func (r *JobResult) Fetch(ctx context.Context) error {
	return r.resource.Manager().Get(ctx, "")
}

// Value returns the decoded result payload, or nil when none was fetched.
func (r *JobResult) Value() (interface{}, error) {
	return r.result.Value()
}

// JobCircuit is the read-only representation of the circuit a job was
// submitted with, as the server recorded it.
type JobCircuit struct {
	resource *Resource
	circuit  *Field[string]
}

// NewJobCircuit creates the circuit sub-resource for the job with the given id.
func NewJobCircuit(transport *Transport, jobID int64) *JobCircuit {
	return newJobCircuitForPath(transport, strconv.FormatInt(jobID, 10))
}

func newJobCircuitForPath(transport *Transport, jobID string) *JobCircuit {
	c := &JobCircuit{
		circuit: NewField("circuit", CoerceString),
	}
	c.resource = NewResource(transport, "job circuit",
		fmt.Sprintf("jobs/%s/circuit", jobID),
		[]Operation{OperationFetch},
		[]FieldSlot{c.circuit})
	return c
}

// Resource returns the underlying resource binding.
func (c *JobCircuit) Resource() *Resource {
	return c.resource
}

// Fetch retrieves the circuit source.
func (c *JobCircuit) Fetch(ctx context.Context) error {
	return c.resource.Manager().Get(ctx, "")
}

// Value returns the circuit source, or the empty string when none was fetched.
func (c *JobCircuit) Value() (string, error) {
	return c.circuit.Value()
}
