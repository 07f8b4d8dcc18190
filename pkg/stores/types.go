package stores

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Submission represents one job submission to the platform, recorded locally
// at submit time and updated as later status observations come in.
type Submission struct {
	ID          string    `json:"id"`
	JobID       int64     `json:"job_id"`
	Hostname    string    `json:"hostname"`
	CircuitPath string    `json:"circuit_path"` // local source file, empty for inline submissions
	Circuit     string    `json:"circuit"`
	LastStatus  string    `json:"last_status"`
	ResultURL   *string   `json:"result_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSubmission builds a submission record for a job the server just
// accepted.
func NewSubmission(jobID int64, hostname, circuitPath, circuit, status string) *Submission {
	now := time.Now().UTC()
	return &Submission{
		ID:          uuid.NewString(),
		JobID:       jobID,
		Hostname:    hostname,
		CircuitPath: circuitPath,
		Circuit:     circuit,
		LastStatus:  status,
		SubmittedAt: now,
		LastSeenAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// JobEvent represents one observed status transition, appended whenever a
// poll sees a status different from the last recorded one.
type JobEvent struct {
	ID           int64     `json:"id"`
	SubmissionID string    `json:"submission_id"`
	JobID        int64     `json:"job_id"`
	FromStatus   *string   `json:"from_status,omitempty"` // nil for the initial observation
	ToStatus     string    `json:"to_status"`
	Timestamp    time.Time `json:"timestamp"`
}

// Store defines the interface for the submission ledger.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Submission operations
	CreateSubmission(ctx context.Context, sub *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	GetSubmissionByJobID(ctx context.Context, jobID int64) (*Submission, error)
	ListSubmissions(ctx context.Context, limit, offset int) ([]*Submission, error)
	DeleteSubmission(ctx context.Context, id string) error

	// Status tracking
	RecordStatus(ctx context.Context, submissionID, observed string) (bool, error)

	// Event operations
	ListJobEvents(ctx context.Context, submissionID *string, limit, offset int) ([]*JobEvent, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
