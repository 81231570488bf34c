package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/autoapply/modules/matcher/model"
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
}

// MatchRepository implements ports.MatchRepository
type MatchRepository struct {
	pool DBPool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// NewMatchRepositoryWithPool creates a repository with a custom pool (for testing)
func NewMatchRepositoryWithPool(pool DBPool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// Insert persists a scored and decided match
func (r *MatchRepository) Insert(ctx context.Context, match *model.ResumeMatch) error {
	query := `
		INSERT INTO resume_matches (id, job_id, overall_score, semantic_score, skill_score,
			experience_score, salary_score, industry_score, matched_skills,
			decision, priority, should_submit, processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, $13)
	`

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	match.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, query,
		match.ID,
		match.JobID,
		match.OverallScore,
		match.Scores.Semantic,
		match.Scores.Skill,
		match.Scores.Experience,
		match.Scores.Salary,
		match.Scores.Industry,
		match.MatchedSkills,
		string(match.Decision),
		string(match.Priority),
		match.ShouldSubmit,
		match.CreatedAt,
	)
	return err
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (*model.ResumeMatch, error) {
	query := `
		SELECT id, job_id, overall_score, semantic_score, skill_score, experience_score,
		       salary_score, industry_score, matched_skills, decision, priority,
		       should_submit, processed, processed_at, created_at
		FROM resume_matches
		WHERE id = $1
	`

	match := &model.ResumeMatch{}
	var decision, priority string
	err := r.pool.QueryRow(ctx, query, matchID).Scan(
		&match.ID, &match.JobID, &match.OverallScore,
		&match.Scores.Semantic, &match.Scores.Skill, &match.Scores.Experience,
		&match.Scores.Salary, &match.Scores.Industry, &match.MatchedSkills,
		&decision, &priority, &match.ShouldSubmit,
		&match.Processed, &match.ProcessedAt, &match.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}
	match.Decision = model.Decision(decision)
	match.Priority = model.Priority(priority)
	return match, nil
}

// ListUnprocessed returns unprocessed matches of live jobs ordered by
// overall score descending. The decision engine layers its adaptive
// batch sizing and submit-ready filtering on top of this query.
func (r *MatchRepository) ListUnprocessed(ctx context.Context, limit int, minSalaryScore float64) ([]*model.PendingMatch, error) {
	query := `
		SELECT m.id, m.job_id, m.overall_score, m.semantic_score, m.skill_score,
		       m.experience_score, m.salary_score, m.industry_score, m.matched_skills,
		       m.decision, m.priority, m.should_submit, m.processed, m.processed_at, m.created_at,
		       j.title, j.company, j.url, j.site
		FROM resume_matches m
		JOIN jobs j ON j.id = m.job_id
		WHERE NOT m.processed AND NOT j.is_deleted
		AND m.salary_score >= $2
		ORDER BY m.overall_score DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit, minSalaryScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*model.PendingMatch
	for rows.Next() {
		match := &model.ResumeMatch{}
		pm := &model.PendingMatch{Match: match}
		var decision, priority string
		if err := rows.Scan(
			&match.ID, &match.JobID, &match.OverallScore,
			&match.Scores.Semantic, &match.Scores.Skill, &match.Scores.Experience,
			&match.Scores.Salary, &match.Scores.Industry, &match.MatchedSkills,
			&decision, &priority, &match.ShouldSubmit,
			&match.Processed, &match.ProcessedAt, &match.CreatedAt,
			&pm.JobTitle, &pm.JobCompany, &pm.JobURL, &pm.Site,
		); err != nil {
			return nil, err
		}
		match.Decision = model.Decision(decision)
		match.Priority = model.Priority(priority)
		pending = append(pending, pm)
	}
	return pending, rows.Err()
}

// MarkProcessed flips the processed flag exactly once
func (r *MatchRepository) MarkProcessed(ctx context.Context, matchID string) error {
	query := `
		UPDATE resume_matches
		SET processed = TRUE, processed_at = $2
		WHERE id = $1 AND NOT processed
	`

	result, err := r.pool.Exec(ctx, query, matchID, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		// Distinguish "missing" from "already processed"
		var processed bool
		if err := r.pool.QueryRow(ctx, `SELECT processed FROM resume_matches WHERE id = $1`, matchID).Scan(&processed); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrMatchNotFound
			}
			return err
		}
		return model.ErrMatchAlreadyProcessed
	}
	return nil
}

// CountPending returns how many unprocessed matches remain
func (r *MatchRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM resume_matches m
		JOIN jobs j ON j.id = m.job_id
		WHERE NOT m.processed AND NOT j.is_deleted
	`).Scan(&count)
	return count, err
}
