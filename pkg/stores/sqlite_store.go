package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	cfg  Config
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		cfg:  cfg,
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Open database with SQLite-specific connection parameters
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	maxOpen := s.cfg.MaxOpenConns
	if s.path == ":memory:" {
		// A second pooled connection would open its own empty database
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(s.cfg.ConnMaxLifetime)

	// Verify connection and set PRAGMAs
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	// Create migration source from embedded FS
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	// Create database driver
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	// Create migration instance
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// CreateSubmission records a new submission together with its initial status
// observation, in one transaction.
func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *Submission) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO submissions (
			id, job_id, hostname, circuit_path, circuit, last_status,
			result_url, submitted_at, last_seen_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		sub.ID,
		sub.JobID,
		sub.Hostname,
		sub.CircuitPath,
		sub.Circuit,
		sub.LastStatus,
		sub.ResultURL,
		sub.SubmittedAt,
		sub.LastSeenAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create submission: %w", err)
	}

	if sub.LastStatus != "" {
		eventQuery := `
			INSERT INTO job_events (submission_id, job_id, from_status, to_status, timestamp)
			VALUES (?, ?, NULL, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, eventQuery, sub.ID, sub.JobID, sub.LastStatus, sub.SubmittedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record initial status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit submission: %w", err)
	}

	return nil
}

// GetSubmission retrieves a submission by ID
func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	query := `
		SELECT id, job_id, hostname, circuit_path, circuit, last_status,
			   result_url, submitted_at, last_seen_at, created_at, updated_at
		FROM submissions
		WHERE id = ?
	`

	return s.scanSubmission(s.db.QueryRowContext(ctx, query, id), fmt.Sprintf("submission not found: %s", id))
}

// GetSubmissionByJobID retrieves a submission by the server-assigned job id
func (s *SQLiteStore) GetSubmissionByJobID(ctx context.Context, jobID int64) (*Submission, error) {
	query := `
		SELECT id, job_id, hostname, circuit_path, circuit, last_status,
			   result_url, submitted_at, last_seen_at, created_at, updated_at
		FROM submissions
		WHERE job_id = ?
	`

	return s.scanSubmission(s.db.QueryRowContext(ctx, query, jobID), fmt.Sprintf("submission not found for job %d", jobID))
}

func (s *SQLiteStore) scanSubmission(row *sql.Row, notFound string) (*Submission, error) {
	sub := &Submission{}
	err := row.Scan(
		&sub.ID,
		&sub.JobID,
		&sub.Hostname,
		&sub.CircuitPath,
		&sub.Circuit,
		&sub.LastStatus,
		&sub.ResultURL,
		&sub.SubmittedAt,
		&sub.LastSeenAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.New(notFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return sub, nil
}

// ListSubmissions lists submissions with pagination, newest first
func (s *SQLiteStore) ListSubmissions(ctx context.Context, limit, offset int) ([]*Submission, error) {
	query := `
		SELECT id, job_id, hostname, circuit_path, circuit, last_status,
			   result_url, submitted_at, last_seen_at, created_at, updated_at
		FROM submissions
		ORDER BY submitted_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	subs := []*Submission{}
	for rows.Next() {
		sub := &Submission{}
		err := rows.Scan(
			&sub.ID,
			&sub.JobID,
			&sub.Hostname,
			&sub.CircuitPath,
			&sub.Circuit,
			&sub.LastStatus,
			&sub.ResultURL,
			&sub.SubmittedAt,
			&sub.LastSeenAt,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}

	return subs, nil
}

// DeleteSubmission deletes a submission and its events by ID
func (s *SQLiteStore) DeleteSubmission(ctx context.Context, id string) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_events WHERE submission_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete job events: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to delete submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		_ = tx.Rollback()
		return fmt.Errorf("submission not found: %s", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

// RecordStatus records a status observation for a submission. When the
// observed status differs from the last recorded one, the transition is
// appended to the events table and true is returned. Either way the
// last-seen timestamp advances.
func (s *SQLiteStore) RecordStatus(ctx context.Context, submissionID, observed string) (bool, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var (
		jobID int64
		last  string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT job_id, last_status FROM submissions WHERE id = ?`, submissionID,
	).Scan(&jobID, &last)
	if err == sql.ErrNoRows {
		_ = tx.Rollback()
		return false, fmt.Errorf("submission not found: %s", submissionID)
	}
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to read submission: %w", err)
	}

	now := time.Now().UTC()

	if observed == last {
		_, err = tx.ExecContext(ctx,
			`UPDATE submissions SET last_seen_at = ?, updated_at = ? WHERE id = ?`,
			now, now, submissionID,
		)
		if err != nil {
			_ = tx.Rollback()
			return false, fmt.Errorf("failed to update submission: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit status: %w", err)
		}
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE submissions SET last_status = ?, last_seen_at = ?, updated_at = ? WHERE id = ?`,
		observed, now, now, submissionID,
	)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to update submission: %w", err)
	}

	var from *string
	if last != "" {
		from = &last
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO job_events (submission_id, job_id, from_status, to_status, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		submissionID, jobID, from, observed, now,
	)
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to append job event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit status: %w", err)
	}

	return true, nil
}

// ListJobEvents retrieves status transitions with an optional submission
// filter and pagination, oldest first
func (s *SQLiteStore) ListJobEvents(ctx context.Context, submissionID *string, limit, offset int) ([]*JobEvent, error) {
	query := `
		SELECT id, submission_id, job_id, from_status, to_status, timestamp
		FROM job_events
		WHERE (? IS NULL OR submission_id = ?)
		ORDER BY timestamp ASC, id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, submissionID, submissionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list job events: %w", err)
	}
	defer rows.Close()

	events := []*JobEvent{}
	for rows.Next() {
		event := &JobEvent{}
		err := rows.Scan(
			&event.ID,
			&event.SubmissionID,
			&event.JobID,
			&event.FromStatus,
			&event.ToStatus,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job events: %w", err)
	}

	return events, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
