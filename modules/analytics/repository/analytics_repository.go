package repository

import (
	"context"
	"fmt"

	"github.com/andreypavlenko/autoapply/modules/analytics/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for database operations used by the repository
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type AnalyticsRepository struct {
	pool DBPool
}

func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// NewAnalyticsRepositoryWithPool creates a repository with a custom pool (for testing)
func NewAnalyticsRepositoryWithPool(pool DBPool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// GetOverview returns high-level pipeline statistics
func (r *AnalyticsRepository) GetOverview(ctx context.Context) (*model.OverviewAnalytics, error) {
	query := `
		WITH job_stats AS (
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE rag_processed AND NOT is_deleted) AS processed,
				COUNT(*) FILTER (WHERE is_deleted) AS deleted
			FROM jobs
		),
		match_stats AS (
			SELECT
				COUNT(*) AS total,
				COUNT(*) FILTER (WHERE should_submit) AS submit_ready,
				COALESCE(AVG(overall_score), 0) AS avg_score
			FROM resume_matches
		),
		submission_stats AS (
			SELECT
				COUNT(*) FILTER (WHERE status = 'SUCCESS') AS succeeded,
				COUNT(*) FILTER (WHERE status IN ('SUCCESS', 'PAGE_ERROR', 'BUTTON_NOT_FOUND')) AS attempted
			FROM submission_logs
		)
		SELECT
			job_stats.total,
			job_stats.processed,
			job_stats.deleted,
			match_stats.total,
			match_stats.submit_ready,
			submission_stats.succeeded,
			CASE WHEN submission_stats.attempted > 0 THEN
				submission_stats.succeeded::numeric / submission_stats.attempted
			ELSE 0 END,
			match_stats.avg_score
		FROM job_stats
		CROSS JOIN match_stats
		CROSS JOIN submission_stats
	`

	analytics := &model.OverviewAnalytics{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&analytics.TotalJobs,
		&analytics.ProcessedJobs,
		&analytics.DeletedJobs,
		&analytics.TotalMatches,
		&analytics.SubmitReady,
		&analytics.Submitted,
		&analytics.SuccessRate,
		&analytics.AvgOverallScore,
	)
	if err != nil {
		return nil, err
	}
	return analytics, nil
}

// GetFunnel returns the extracted → submitted funnel. Each stage's
// conversion rate is relative to the stage before it.
func (r *AnalyticsRepository) GetFunnel(ctx context.Context) (*model.FunnelAnalytics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM jobs) AS extracted,
			(SELECT COUNT(*) FROM jobs WHERE rag_processed) AS processed,
			(SELECT COUNT(*) FROM resume_matches) AS matched,
			(SELECT COUNT(*) FROM resume_matches WHERE should_submit) AS submit_ready,
			(SELECT COUNT(DISTINCT match_id) FROM submission_logs WHERE status NOT IN ('PENDING', 'LOGIN_REQUIRED')) AS submitted,
			(SELECT COUNT(*) FROM submission_logs WHERE status = 'SUCCESS') AS succeeded
	`

	var counts [6]int
	if err := r.pool.QueryRow(ctx, query).Scan(&counts[0], &counts[1], &counts[2], &counts[3], &counts[4], &counts[5]); err != nil {
		return nil, err
	}

	names := []string{"extracted", "processed", "matched", "submit_ready", "submitted", "succeeded"}
	funnel := &model.FunnelAnalytics{}
	for i, name := range names {
		stage := model.FunnelStage{StageName: name, Count: counts[i], ConversionRate: 1}
		if i > 0 && counts[i-1] > 0 {
			stage.ConversionRate = float64(counts[i]) / float64(counts[i-1])
		}
		funnel.Stages = append(funnel.Stages, stage)
	}
	return funnel, nil
}

// GetScoreDistribution returns the overall-score histogram in 0.1 buckets
func (r *AnalyticsRepository) GetScoreDistribution(ctx context.Context) (*model.ScoreDistribution, error) {
	query := `
		SELECT LEAST(FLOOR(overall_score * 10), 9)::int AS bucket, COUNT(*)
		FROM resume_matches
		GROUP BY bucket
		ORDER BY bucket
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var bucket, count int
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, err
		}
		counts[bucket] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dist := &model.ScoreDistribution{}
	for i := 0; i < 10; i++ {
		dist.Buckets = append(dist.Buckets, model.ScoreBucket{
			Lower: float64(i) / 10,
			Upper: float64(i+1) / 10,
			Count: counts[i],
		})
	}
	return dist, nil
}

// GetDailySubmissions returns per-day submission counts for the last N days
func (r *AnalyticsRepository) GetDailySubmissions(ctx context.Context, days int) (*model.SubmissionAnalytics, error) {
	query := fmt.Sprintf(`
		SELECT
			to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day,
			COUNT(*) FILTER (WHERE status = 'SUCCESS') AS succeeded,
			COUNT(*) FILTER (WHERE status IN ('PAGE_ERROR', 'BUTTON_NOT_FOUND')) AS failed,
			COUNT(*) AS total
		FROM submission_logs
		WHERE created_at >= NOW() - INTERVAL '%d days'
		GROUP BY day
		ORDER BY day DESC
	`, days)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analytics := &model.SubmissionAnalytics{}
	for rows.Next() {
		var d model.DailySubmissions
		if err := rows.Scan(&d.Day, &d.Succeeded, &d.Failed, &d.Total); err != nil {
			return nil, err
		}
		analytics.Days = append(analytics.Days, d)
	}
	return analytics, rows.Err()
}

// GetSiteAnalytics returns metrics grouped by source site
func (r *AnalyticsRepository) GetSiteAnalytics(ctx context.Context) (*model.SiteAnalytics, error) {
	query := `
		SELECT
			j.site,
			COUNT(DISTINCT j.id) AS jobs_extracted,
			COUNT(DISTINCT m.id) AS matches_created,
			COUNT(DISTINCT l.match_id) FILTER (WHERE l.status = 'SUCCESS') AS submitted
		FROM jobs j
		LEFT JOIN resume_matches m ON m.job_id = j.id
		LEFT JOIN submission_logs l ON l.job_id = j.id
		GROUP BY j.site
		ORDER BY jobs_extracted DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analytics := &model.SiteAnalytics{}
	for rows.Next() {
		var s model.SiteMetrics
		if err := rows.Scan(&s.Site, &s.JobsExtracted, &s.MatchesCreated, &s.Submitted); err != nil {
			return nil, err
		}
		if s.JobsExtracted > 0 {
			s.ConversionRate = float64(s.Submitted) / float64(s.JobsExtracted)
		}
		analytics.Sites = append(analytics.Sites, s)
	}
	return analytics, rows.Err()
}
