package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"panelnorm/models"
	"panelnorm/ports"
)

// jobRepository implements the JobRepository interface over Postgres
type jobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new Postgres-backed job repository
func NewJobRepository(db *sqlx.DB) ports.JobRepository {
	return &jobRepository{db: db}
}

// EnsureSchema creates the jobs table if it does not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	query := `CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		source_name TEXT NOT NULL,
		status TEXT NOT NULL,
		sheets_processed INTEGER NOT NULL DEFAULT 0,
		total_records INTEGER NOT NULL DEFAULT 0,
		terminated_count INTEGER NOT NULL DEFAULT 0,
		summary_stats JSONB NOT NULL DEFAULT '{}',
		output_files JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	return nil
}

// Save upserts a job record
func (r *jobRepository) Save(ctx context.Context, job *models.Job) error {
	filesJSON, err := json.Marshal(job.OutputFiles)
	if err != nil {
		return fmt.Errorf("failed to marshal output files: %w", err)
	}
	summaryJSON, err := json.Marshal(job.SummaryStats)
	if err != nil {
		return fmt.Errorf("failed to marshal summary stats: %w", err)
	}

	query := `INSERT INTO jobs (
		id, source_name, status, sheets_processed, total_records, terminated_count, summary_stats, output_files, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		sheets_processed = EXCLUDED.sheets_processed,
		total_records = EXCLUDED.total_records,
		terminated_count = EXCLUDED.terminated_count,
		summary_stats = EXCLUDED.summary_stats,
		output_files = EXCLUDED.output_files`

	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.SourceName, job.Status, job.SheetsProcessed,
		job.TotalRecords, job.TerminatedCount, summaryJSON, filesJSON, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// Get retrieves a job by its ID
func (r *jobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT id, source_name, status, sheets_processed, total_records, terminated_count, summary_stats, output_files, created_at
	FROM jobs WHERE id = $1`

	var job models.Job
	var summaryJSON, filesJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.SourceName, &job.Status, &job.SheetsProcessed,
		&job.TotalRecords, &job.TerminatedCount, &summaryJSON, &filesJSON, &job.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &job.SummaryStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary stats: %w", err)
		}
	}
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &job.OutputFiles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal output files: %w", err)
		}
	}
	return &job, nil
}

// Delete removes a job record
func (r *jobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}
