package repository

import (
	"context"
	"strings"
	"testing"

	matchmodel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/andreypavlenko/autoapply/modules/submitter/model"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRepository_AppendLog(t *testing.T) {
	t.Run("appends a non-terminal attempt", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		log := &model.SubmissionLog{
			MatchID: "match-1",
			JobID:   "job-1",
			Status:  model.StatusLoginRequired,
			Reason:  "site requires login",
		}

		mock.ExpectExec("INSERT INTO submission_logs").
			WithArgs(pgxmock.AnyArg(), "match-1", "job-1", "LOGIN_REQUIRED", "site requires login",
				"", "", "", "", "", int64(0), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewSubmissionRepositoryWithPool(mock)
		err = repo.AppendLog(context.Background(), log)

		require.NoError(t, err)
		assert.NotEmpty(t, log.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("truncates oversized page snippets", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		log := &model.SubmissionLog{
			MatchID:     "match-1",
			JobID:       "job-1",
			Status:      model.StatusPending,
			PageSnippet: strings.Repeat("x", 5000),
		}

		mock.ExpectExec("INSERT INTO submission_logs").
			WithArgs(pgxmock.AnyArg(), "match-1", "job-1", "PENDING", "",
				"", "", "", strings.Repeat("x", 2000), "", int64(0), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewSubmissionRepositoryWithPool(mock)
		require.NoError(t, repo.AppendLog(context.Background(), log))
		assert.Len(t, log.PageSnippet, 2000)
	})
}

func TestSubmissionRepository_Finalize(t *testing.T) {
	t.Run("flips the flag and writes the log in one transaction", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE resume_matches").
			WithArgs("match-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("INSERT INTO submission_logs").
			WithArgs(pgxmock.AnyArg(), "match-1", "job-1", "SUCCESS", "applied",
				"", "", "", "", "", int64(0), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		repo := NewSubmissionRepositoryWithPool(mock)
		err = repo.Finalize(context.Background(), &model.SubmissionLog{
			MatchID: "match-1",
			JobID:   "job-1",
			Status:  model.StatusSuccess,
			Reason:  "applied",
		})

		require.NoError(t, err)
	})

	t.Run("already processed match aborts the transaction", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE resume_matches").
			WithArgs("match-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		repo := NewSubmissionRepositoryWithPool(mock)
		err = repo.Finalize(context.Background(), &model.SubmissionLog{
			MatchID: "match-1",
			JobID:   "job-1",
			Status:  model.StatusSuccess,
		})

		assert.Equal(t, matchmodel.ErrMatchAlreadyProcessed, err)
	})
}

func TestSubmissionRepository_CountSubmissionsToday(t *testing.T) {
	t.Run("counts today's successes", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs("SUCCESS").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

		repo := NewSubmissionRepositoryWithPool(mock)
		count, err := repo.CountSubmissionsToday(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 7, count)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubmissionRepository_RepairInconsistencies(t *testing.T) {
	t.Run("closes matches with terminal logs", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("UPDATE resume_matches").
			WithArgs(pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))

		repo := NewSubmissionRepositoryWithPool(mock)
		repaired, err := repo.RepairInconsistencies(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, repaired)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
