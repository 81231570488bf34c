package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository_Insert(t *testing.T) {
	t.Run("persists a decided match", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		match := &model.ResumeMatch{
			JobID:        "job-1",
			OverallScore: 0.92,
			Scores: model.DimensionScores{
				Semantic: 0.8, Skill: 1, Experience: 1, Salary: 1, Industry: 0.5,
			},
			MatchedSkills: []string{"python", "django"},
			Decision:      model.DecisionSubmit,
			Priority:      model.PriorityHigh,
			ShouldSubmit:  true,
		}

		mock.ExpectExec("INSERT INTO resume_matches").
			WithArgs(pgxmock.AnyArg(), "job-1", 0.92, 0.8, 1.0, 1.0, 1.0, 0.5,
				match.MatchedSkills, "submit", "high", true, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewMatchRepositoryWithPool(mock)
		err = repo.Insert(context.Background(), match)

		require.NoError(t, err)
		assert.NotEmpty(t, match.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMatchRepository_MarkProcessed(t *testing.T) {
	t.Run("flips the flag once", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE resume_matches").
			WithArgs("match-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewMatchRepositoryWithPool(mock)
		err = repo.MarkProcessed(context.Background(), "match-1")

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second call fails with already processed", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE resume_matches").
			WithArgs("match-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT processed FROM resume_matches").
			WithArgs("match-1").
			WillReturnRows(pgxmock.NewRows([]string{"processed"}).AddRow(true))

		repo := NewMatchRepositoryWithPool(mock)
		err = repo.MarkProcessed(context.Background(), "match-1")

		assert.Equal(t, model.ErrMatchAlreadyProcessed, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing match fails with not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE resume_matches").
			WithArgs("missing", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT processed FROM resume_matches").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		repo := NewMatchRepositoryWithPool(mock)
		err = repo.MarkProcessed(context.Background(), "missing")

		assert.Equal(t, model.ErrMatchNotFound, err)
	})
}

func TestMatchRepository_ListUnprocessed(t *testing.T) {
	t.Run("applies the salary floor and scans joined rows", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{
			"id", "job_id", "overall_score", "semantic_score", "skill_score",
			"experience_score", "salary_score", "industry_score", "matched_skills",
			"decision", "priority", "should_submit", "processed", "processed_at", "created_at",
			"title", "company", "url", "site",
		}).AddRow(
			"match-1", "job-1", 0.9, 0.8, 1.0, 1.0, 0.9, 0.5, []string{"python"},
			"submit", "high", true, false, nil, time.Now(),
			"Python开发", "星云科技", "https://jobs.example.com/1", "demo",
		)

		mock.ExpectQuery("SELECT (.+) FROM resume_matches").
			WithArgs(200, 0.3).
			WillReturnRows(rows)

		repo := NewMatchRepositoryWithPool(mock)
		pending, err := repo.ListUnprocessed(context.Background(), 200, 0.3)

		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "match-1", pending[0].Match.ID)
		assert.Equal(t, model.PriorityHigh, pending[0].Match.Priority)
		assert.Equal(t, "https://jobs.example.com/1", pending[0].JobURL)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
