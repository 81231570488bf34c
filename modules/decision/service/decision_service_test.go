package service

import (
	"context"
	"testing"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	matchmodel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockMatchRepository implements matcher ports.MatchRepository
type MockMatchRepository struct {
	InsertFunc          func(ctx context.Context, match *matchmodel.ResumeMatch) error
	ListUnprocessedFunc func(ctx context.Context, limit int, minSalaryScore float64) ([]*matchmodel.PendingMatch, error)
	MarkProcessedFunc   func(ctx context.Context, matchID string) error
}

func (m *MockMatchRepository) Insert(ctx context.Context, match *matchmodel.ResumeMatch) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, match)
	}
	return nil
}

func (m *MockMatchRepository) GetByID(ctx context.Context, matchID string) (*matchmodel.ResumeMatch, error) {
	return nil, matchmodel.ErrMatchNotFound
}

func (m *MockMatchRepository) ListUnprocessed(ctx context.Context, limit int, minSalaryScore float64) ([]*matchmodel.PendingMatch, error) {
	if m.ListUnprocessedFunc != nil {
		return m.ListUnprocessedFunc(ctx, limit, minSalaryScore)
	}
	return nil, nil
}

func (m *MockMatchRepository) MarkProcessed(ctx context.Context, matchID string) error {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, matchID)
	}
	return nil
}

func (m *MockMatchRepository) CountPending(ctx context.Context) (int, error) {
	return 0, nil
}

type stubReputation struct{ value float64 }

func (s stubReputation) Reputation(ctx context.Context, name string) float64 { return s.value }

type stubCounter struct{ count int }

func (s stubCounter) CountSubmissionsToday(ctx context.Context) (int, error) { return s.count, nil }

func testDecideConfig() config.DecideConfig {
	return config.DefaultPipelineConfig().Decide
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func newService(t *testing.T, repo *MockMatchRepository, counter stubCounter) *DecisionService {
	t.Helper()
	return NewDecisionService(repo, stubReputation{value: 0.5}, counter, testDecideConfig(), testLogger(t))
}

func scoredMatch(jobID string, overall, salary float64) *matchmodel.ResumeMatch {
	return &matchmodel.ResumeMatch{
		JobID:        jobID,
		OverallScore: overall,
		Scores: matchmodel.DimensionScores{
			Semantic: overall, Skill: overall, Experience: overall, Salary: salary, Industry: 0.5,
		},
	}
}

func TestDecisionService_DecideAndStore(t *testing.T) {
	profile := &matchmodel.ResumeProfile{Name: "x", PreferredLocations: []string{"上海"}}

	t.Run("salary gate rejects below threshold", func(t *testing.T) {
		var inserted []*matchmodel.ResumeMatch
		repo := &MockMatchRepository{
			InsertFunc: func(ctx context.Context, match *matchmodel.ResumeMatch) error {
				inserted = append(inserted, match)
				return nil
			},
		}
		svc := newService(t, repo, stubCounter{})

		jobs := []*jobmodel.Job{{ID: "j1", Title: "Python开发", Location: "上海"}}
		matches := []*matchmodel.ResumeMatch{scoredMatch("j1", 0.9, 0.1)}

		stats, err := svc.DecideAndStore(context.Background(), profile, jobs, matches)

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Evaluated)
		assert.Equal(t, 1, stats.Rejected)
		require.Len(t, inserted, 1)
		assert.Equal(t, matchmodel.DecisionRejectedByGate, inserted[0].Decision)
		assert.Equal(t, matchmodel.PriorityLow, inserted[0].Priority)
		assert.False(t, inserted[0].ShouldSubmit)
	})

	t.Run("gate monotonicity holds", func(t *testing.T) {
		repo := &MockMatchRepository{}
		svc := newService(t, repo, stubCounter{})

		jobs := []*jobmodel.Job{{ID: "j1", Title: "开发"}}
		matches := []*matchmodel.ResumeMatch{scoredMatch("j1", 0.99, 0.29)}

		_, err := svc.DecideAndStore(context.Background(), profile, jobs, matches)

		require.NoError(t, err)
		assert.False(t, matches[0].ShouldSubmit)
	})

	t.Run("senior titles need the higher threshold", func(t *testing.T) {
		repo := &MockMatchRepository{}
		svc := newService(t, repo, stubCounter{})

		jobs := []*jobmodel.Job{{ID: "j1", Title: "资深架构师", Location: "上海"}}
		// 0.4 clears the default 0.30 gate but not the senior 0.50 tier
		matches := []*matchmodel.ResumeMatch{scoredMatch("j1", 0.9, 0.4)}

		stats, err := svc.DecideAndStore(context.Background(), profile, jobs, matches)

		require.NoError(t, err)
		assert.Equal(t, 1, stats.Rejected)
		assert.Equal(t, matchmodel.DecisionRejectedByGate, matches[0].Decision)
	})

	t.Run("strong match in preferred location is urgent", func(t *testing.T) {
		repo := &MockMatchRepository{}
		svc := newService(t, repo, stubCounter{})

		jobs := []*jobmodel.Job{{ID: "j1", Title: "资深架构师", Location: "上海"}}
		matches := []*matchmodel.ResumeMatch{scoredMatch("j1", 1.0, 1.0)}

		_, err := svc.DecideAndStore(context.Background(), profile, jobs, matches)

		require.NoError(t, err)
		// 0.35*1 + 0.15*0.5 + 0.2*1 + 0.15*1 + 0.1*1 + 0.05*0.5 = 0.9
		assert.Equal(t, matchmodel.PriorityUrgent, matches[0].Priority)
		assert.True(t, matches[0].ShouldSubmit)
		assert.Equal(t, matchmodel.DecisionSubmit, matches[0].Decision)
	})

	t.Run("daily quota caps submit-ready output", func(t *testing.T) {
		repo := &MockMatchRepository{}
		// Quota already consumed today
		svc := newService(t, repo, stubCounter{count: testDecideConfig().MaxSubmissionsPerDay})

		jobs := []*jobmodel.Job{{ID: "j1", Title: "开发", Location: "上海"}}
		matches := []*matchmodel.ResumeMatch{scoredMatch("j1", 1.0, 1.0)}

		_, err := svc.DecideAndStore(context.Background(), profile, jobs, matches)

		require.NoError(t, err)
		assert.False(t, matches[0].ShouldSubmit)
		assert.Equal(t, matchmodel.DecisionSkip, matches[0].Decision)
	})
}

func TestDecisionService_SelectSubmitReady(t *testing.T) {
	t.Run("adaptive sizing over-fetches against the rejection rate", func(t *testing.T) {
		var requestedLimit int
		repo := &MockMatchRepository{
			ListUnprocessedFunc: func(ctx context.Context, limit int, minSalaryScore float64) ([]*matchmodel.PendingMatch, error) {
				requestedLimit = limit
				return nil, nil
			},
		}
		svc := newService(t, repo, stubCounter{})

		_, err := svc.SelectSubmitReady(context.Background(), 20)

		require.NoError(t, err)
		// Initial rejection rate 0.9 → multiplier 11 → at least 200 raw rows
		assert.GreaterOrEqual(t, requestedLimit, 200)
	})

	t.Run("filters to submit-ready and orders by priority then score", func(t *testing.T) {
		pendingOf := func(id string, priority matchmodel.Priority, score, salaryScore float64, submit bool) *matchmodel.PendingMatch {
			return &matchmodel.PendingMatch{Match: &matchmodel.ResumeMatch{
				ID: id, Priority: priority, OverallScore: score, ShouldSubmit: submit,
				Scores: matchmodel.DimensionScores{Salary: salaryScore},
			}}
		}
		repo := &MockMatchRepository{
			ListUnprocessedFunc: func(ctx context.Context, limit int, minSalaryScore float64) ([]*matchmodel.PendingMatch, error) {
				return []*matchmodel.PendingMatch{
					pendingOf("gated", matchmodel.PriorityLow, 0.95, 0.1, false),
					pendingOf("high-low-score", matchmodel.PriorityHigh, 0.6, 0.8, true),
					pendingOf("urgent", matchmodel.PriorityUrgent, 0.7, 0.8, true),
					pendingOf("high-high-score", matchmodel.PriorityHigh, 0.9, 0.8, true),
				}, nil
			},
		}
		svc := newService(t, repo, stubCounter{})

		ready, err := svc.SelectSubmitReady(context.Background(), 10)

		require.NoError(t, err)
		require.Len(t, ready, 3)
		assert.Equal(t, "urgent", ready[0].Match.ID)
		assert.Equal(t, "high-high-score", ready[1].Match.ID)
		assert.Equal(t, "high-low-score", ready[2].Match.ID)
		for _, pm := range ready {
			assert.GreaterOrEqual(t, pm.Match.Scores.Salary, testDecideConfig().MinSalaryScore)
		}
	})

	t.Run("remaining daily budget bounds the batch", func(t *testing.T) {
		repo := &MockMatchRepository{
			ListUnprocessedFunc: func(ctx context.Context, limit int, minSalaryScore float64) ([]*matchmodel.PendingMatch, error) {
				var out []*matchmodel.PendingMatch
				for i := 0; i < 30; i++ {
					out = append(out, &matchmodel.PendingMatch{Match: &matchmodel.ResumeMatch{
						ID: "m", Priority: matchmodel.PriorityHigh, OverallScore: 0.8, ShouldSubmit: true,
						Scores: matchmodel.DimensionScores{Salary: 0.8},
					}})
				}
				return out, nil
			},
		}
		svc := newService(t, repo, stubCounter{count: testDecideConfig().MaxSubmissionsPerDay - 5})

		ready, err := svc.SelectSubmitReady(context.Background(), 20)

		require.NoError(t, err)
		assert.Len(t, ready, 5)
	})
}
