package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ipu-result-api/internal/models"
)

const importJobColumns = `id, source, fingerprint, status, page_count, subject_count, student_count, mark_count, skewed_blocks, error_message, created_at, finished_at`

// ImportJobRepository persists submitted documents and their processing state.
type ImportJobRepository struct {
	db *sqlx.DB
}

// NewImportJobRepository constructs an ImportJobRepository.
func NewImportJobRepository(db *sqlx.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create stores a new job together with its page texts.
func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO import_jobs (id, source, fingerprint, status, page_count, pages, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		job.ID, job.Source, job.Fingerprint, job.Status, job.PageCount, pq.Array(job.Pages), job.CreatedAt,
	); err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

// FindByID fetches a job without its pages. It returns sql.ErrNoRows when absent.
func (r *ImportJobRepository) FindByID(ctx context.Context, id string) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := r.db.GetContext(ctx, &job, `SELECT `+importJobColumns+` FROM import_jobs WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// FindByFingerprint returns the job that imported identical pages, or nil.
func (r *ImportJobRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.GetContext(ctx, &job, `SELECT `+importJobColumns+` FROM import_jobs WHERE fingerprint = $1`, fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find import job by fingerprint: %w", err)
	}
	return &job, nil
}

// Pages loads the page texts of a job.
func (r *ImportJobRepository) Pages(ctx context.Context, id string) ([]string, error) {
	var pages []string
	if err := r.db.QueryRowxContext(ctx, `SELECT pages FROM import_jobs WHERE id = $1`, id).Scan(pq.Array(&pages)); err != nil {
		return nil, fmt.Errorf("load import pages: %w", err)
	}
	return pages, nil
}

// MarkProcessing moves a job into the processing state.
func (r *ImportJobRepository) MarkProcessing(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE import_jobs SET status = $2, error_message = NULL WHERE id = $1`, id, models.ImportStatusProcessing); err != nil {
		return fmt.Errorf("mark import processing: %w", err)
	}
	return nil
}

// Finish records the final state and counters of a job.
func (r *ImportJobRepository) Finish(ctx context.Context, job *models.ImportJob) error {
	if job.FinishedAt == nil {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}
	const query = `UPDATE import_jobs
SET status = :status, subject_count = :subject_count, student_count = :student_count, mark_count = :mark_count,
    skewed_blocks = :skewed_blocks, error_message = :error_message, finished_at = :finished_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("finish import job: %w", err)
	}
	return nil
}

// ListUnfinished returns the ids of queued or processing jobs, oldest first.
func (r *ImportJobRepository) ListUnfinished(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id FROM import_jobs WHERE status IN ($1, $2) ORDER BY created_at ASC LIMIT $3`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.ImportStatusQueued, models.ImportStatusProcessing, limit); err != nil {
		return nil, fmt.Errorf("list unfinished imports: %w", err)
	}
	return ids, nil
}
