package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/autoapply/modules/jobs/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for database operations used by the repository
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// JobRepository implements ports.JobRepository
type JobRepository struct {
	pool DBPool
}

// NewJobRepository creates a new job repository
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// NewJobRepositoryWithPool creates a repository with a custom pool (for testing)
func NewJobRepositoryWithPool(pool DBPool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `id, job_id, fingerprint, title, company, location, salary_raw, url, site, description,
		responsibilities, requirements, skills, education, experience,
		extraction_fallback, rag_processed, doc_ref, is_deleted, deleted_at, created_at, updated_at`

// InsertIfNew inserts a raw job unless a live row already carries the same
// fingerprint. The uniqueness violation is a business signal, not an error.
func (r *JobRepository) InsertIfNew(ctx context.Context, raw *model.RawJob, fingerprint string) (string, bool, error) {
	query := `
		INSERT INTO jobs (id, job_id, fingerprint, title, company, location, salary_raw, url, site, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (fingerprint) WHERE NOT is_deleted DO NOTHING
		RETURNING id
	`

	id := uuid.New().String()
	now := time.Now().UTC()

	var insertedID string
	err := r.pool.QueryRow(ctx, query,
		id,
		raw.JobID,
		fingerprint,
		raw.Title,
		raw.Company,
		raw.Location,
		raw.SalaryRaw,
		raw.URL,
		raw.Site,
		raw.Description,
		now,
		now,
	).Scan(&insertedID)

	if err == nil {
		return insertedID, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	// Conflict: the fingerprint is already known
	existingID, ok, err := r.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, model.ErrJobNotFound
	}
	return existingID, false, nil
}

// FindByFingerprint returns the live job id with the given fingerprint
func (r *JobRepository) FindByFingerprint(ctx context.Context, fingerprint string) (string, bool, error) {
	query := `SELECT id FROM jobs WHERE fingerprint = $1 AND NOT is_deleted`

	var id string
	err := r.pool.QueryRow(ctx, query, fingerprint).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(ctx context.Context, jobID string) (*model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job := &model.Job{}
	err := r.pool.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.JobID, &job.Fingerprint, &job.Title, &job.Company, &job.Location,
		&job.SalaryRaw, &job.URL, &job.Site, &job.Description,
		&job.Responsibilities, &job.Requirements, &job.Skills, &job.Education, &job.Experience,
		&job.ExtractionFallback, &job.RAGProcessed, &job.DocRef, &job.IsDeleted, &job.DeletedAt,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListUnprocessed returns live jobs awaiting structured processing
func (r *JobRepository) ListUnprocessed(ctx context.Context, limit int) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE NOT rag_processed AND NOT is_deleted
		ORDER BY created_at ASC
		LIMIT $1
	`
	return r.listJobs(ctx, query, limit)
}

// ListMatchCandidates returns processed live jobs with no match row yet
func (r *JobRepository) ListMatchCandidates(ctx context.Context, limit int) ([]*model.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs j
		WHERE j.rag_processed AND NOT j.is_deleted
		AND NOT EXISTS (SELECT 1 FROM resume_matches m WHERE m.job_id = j.id)
		ORDER BY j.created_at ASC
		LIMIT $1
	`
	return r.listJobs(ctx, query, limit)
}

func (r *JobRepository) listJobs(ctx context.Context, query string, args ...interface{}) ([]*model.Job, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job := &model.Job{}
		if err := rows.Scan(
			&job.ID, &job.JobID, &job.Fingerprint, &job.Title, &job.Company, &job.Location,
			&job.SalaryRaw, &job.URL, &job.Site, &job.Description,
			&job.Responsibilities, &job.Requirements, &job.Skills, &job.Education, &job.Experience,
			&job.ExtractionFallback, &job.RAGProcessed, &job.DocRef, &job.IsDeleted, &job.DeletedAt,
			&job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkProcessed applies structured fields and flips rag_processed.
// Re-marking an already processed job is a no-op, not an error.
func (r *JobRepository) MarkProcessed(ctx context.Context, jobID string, fields *model.StructuredFields, docRef string) error {
	query := `
		UPDATE jobs
		SET responsibilities = $2, requirements = $3, skills = $4, education = $5, experience = $6,
		    extraction_fallback = $7, rag_processed = TRUE, doc_ref = $8, updated_at = $9
		WHERE id = $1 AND NOT is_deleted
	`

	result, err := r.pool.Exec(ctx, query,
		jobID,
		fields.Responsibilities,
		fields.Requirements,
		fields.Skills,
		fields.Education,
		fields.Experience,
		fields.Fallback,
		docRef,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}
	return nil
}

// SoftDelete marks a job deleted and removes its dependent matches in one
// transaction, keeping the cascade invariant.
func (r *JobRepository) SoftDelete(ctx context.Context, jobID, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE jobs
		SET is_deleted = TRUE, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND NOT is_deleted
	`, jobID, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM resume_matches WHERE job_id = $1`, jobID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
