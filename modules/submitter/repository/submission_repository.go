package repository

import (
	"context"
	"time"

	matchmodel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/andreypavlenko/autoapply/modules/submitter/model"
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

// SubmissionRepository implements ports.SubmissionRepository
type SubmissionRepository struct {
	pool DBPool
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// NewSubmissionRepositoryWithPool creates a repository with a custom pool (for testing)
func NewSubmissionRepositoryWithPool(pool DBPool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

const insertLogQuery = `
	INSERT INTO submission_logs (id, match_id, job_id, status, reason, page_title,
		button_text, button_class, page_snippet, snapshot_key, detection_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// AppendLog records an attempt. Logs are append-only; nothing updates
// or deletes them.
func (r *SubmissionRepository) AppendLog(ctx context.Context, log *model.SubmissionLog) error {
	prepare(log)
	_, err := r.pool.Exec(ctx, insertLogQuery, logArgs(log)...)
	return err
}

// Finalize writes a terminal log and flips the match's processed flag in
// one transaction, enforcing at-most-once submission.
func (r *SubmissionRepository) Finalize(ctx context.Context, log *model.SubmissionLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE resume_matches
		SET processed = TRUE, processed_at = $2
		WHERE id = $1 AND NOT processed
	`, log.MatchID, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return matchmodel.ErrMatchAlreadyProcessed
	}

	prepare(log)
	if _, err := tx.Exec(ctx, insertLogQuery, logArgs(log)...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CountSubmissionsToday counts SUCCESS logs on the current calendar day
func (r *SubmissionRepository) CountSubmissionsToday(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM submission_logs
		WHERE status = $1 AND created_at >= date_trunc('day', NOW())
	`, string(model.StatusSuccess)).Scan(&count)
	return count, err
}

// RepairInconsistencies closes matches that carry a terminal log but
// were left unprocessed by a crash between the log write and the flag
// flip of an older, non-transactional code path.
func (r *SubmissionRepository) RepairInconsistencies(ctx context.Context) (int, error) {
	statuses := make([]string, len(model.TerminalStatuses))
	for i, s := range model.TerminalStatuses {
		statuses[i] = string(s)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE resume_matches m
		SET processed = TRUE, processed_at = NOW()
		WHERE NOT m.processed
		AND EXISTS (
			SELECT 1 FROM submission_logs l
			WHERE l.match_id = m.id AND l.status = ANY($1)
		)
	`, statuses)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func prepare(log *model.SubmissionLog) {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	// Snippets are diagnostics, not page archives
	if len(log.PageSnippet) > 2000 {
		log.PageSnippet = log.PageSnippet[:2000]
	}
}

func logArgs(log *model.SubmissionLog) []interface{} {
	return []interface{}{
		log.ID, log.MatchID, log.JobID, string(log.Status), log.Reason, log.PageTitle,
		log.ButtonText, log.ButtonClass, log.PageSnippet, log.SnapshotKey, log.DetectionMS, log.CreatedAt,
	}
}
