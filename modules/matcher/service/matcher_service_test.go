package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	"github.com/andreypavlenko/autoapply/modules/matcher/model"
	vsmodel "github.com/andreypavlenko/autoapply/modules/vectorstore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockVectorSearcher implements ports.VectorSearcher
type MockVectorSearcher struct {
	TimeAwareSearchFunc func(ctx context.Context, query string, k int, strategy vsmodel.SearchStrategy, filter *vsmodel.SearchFilter) ([]*vsmodel.ScoredDocument, error)
}

func (m *MockVectorSearcher) TimeAwareSearch(ctx context.Context, query string, k int, strategy vsmodel.SearchStrategy, filter *vsmodel.SearchFilter) ([]*vsmodel.ScoredDocument, error) {
	if m.TimeAwareSearchFunc != nil {
		return m.TimeAwareSearchFunc(ctx, query, k, strategy, filter)
	}
	return nil, nil
}

func testMatchConfig() config.MatchConfig {
	return config.DefaultPipelineConfig().Match
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return log
}

func testProfile() *model.ResumeProfile {
	return &model.ResumeProfile{
		Name:            "候选人",
		TotalYears:      5,
		CurrentPosition: "后端开发工程师",
		SkillCategories: []model.SkillCategory{
			{Name: "backend", Skills: []string{"Python", "Django", "MySQL"}},
		},
		PreferredLocations: []string{"上海"},
		SalaryExpectation:  model.SalaryRange{Min: 15000, Max: 25000},
	}
}

func TestMatcherService_ScoreJob(t *testing.T) {
	job := &jobmodel.Job{
		ID:         "job-1",
		Title:      "Python后端开发",
		Company:    "星云科技",
		SalaryRaw:  "18-24K",
		Skills:     []string{"Python", "Django"},
		Experience: "3-5年",
	}

	t.Run("composes weighted dimensions", func(t *testing.T) {
		vectors := &MockVectorSearcher{
			TimeAwareSearchFunc: func(ctx context.Context, query string, k int, strategy vsmodel.SearchStrategy, filter *vsmodel.SearchFilter) ([]*vsmodel.ScoredDocument, error) {
				require.Equal(t, "job-1", filter.JobID)
				return []*vsmodel.ScoredDocument{
					{Document: &vsmodel.JobDocument{DocumentType: vsmodel.DocOverview, CreatedAt: time.Now()}, Score: 0.8},
				}, nil
			},
		}
		svc := NewMatcherService(vectors, testMatchConfig(), testLogger(t))

		match := svc.ScoreJob(context.Background(), testProfile(), job)

		assert.InDelta(t, 0.8, match.Scores.Semantic, 1e-9)
		assert.InDelta(t, 1.0, match.Scores.Skill, 1e-9)
		assert.InDelta(t, 1.0, match.Scores.Experience, 1e-9)
		assert.InDelta(t, 1.0, match.Scores.Salary, 1e-9)
		// 0.4*0.8 + 0.3*1 + 0.2*1 + 0.1*1
		assert.InDelta(t, 0.92, match.OverallScore, 1e-9)
		assert.ElementsMatch(t, []string{"python", "django"}, match.MatchedSkills)
	})

	t.Run("falls back to lexical overlap when vector path is empty", func(t *testing.T) {
		svc := NewMatcherService(&MockVectorSearcher{}, testMatchConfig(), testLogger(t))

		match := svc.ScoreJob(context.Background(), testProfile(), &jobmodel.Job{
			ID:        "job-2",
			Title:     "Python Django Engineer",
			Company:   "Acme",
			SalaryRaw: "18-24K",
			Skills:    []string{"Python"},
		})

		assert.Greater(t, match.Scores.Semantic, 0.0)
		assert.LessOrEqual(t, match.Scores.Semantic, 1.0)
	})

	t.Run("vector errors degrade to fallback, not failure", func(t *testing.T) {
		vectors := &MockVectorSearcher{
			TimeAwareSearchFunc: func(ctx context.Context, query string, k int, strategy vsmodel.SearchStrategy, filter *vsmodel.SearchFilter) ([]*vsmodel.ScoredDocument, error) {
				return nil, errors.New("store offline")
			},
		}
		svc := NewMatcherService(vectors, testMatchConfig(), testLogger(t))

		match := svc.ScoreJob(context.Background(), testProfile(), job)
		assertScoreBounds(t, match)
	})

	t.Run("empty candidate skills floor the skill dimension", func(t *testing.T) {
		svc := NewMatcherService(&MockVectorSearcher{}, testMatchConfig(), testLogger(t))
		profile := &model.ResumeProfile{Name: "空", SalaryExpectation: model.SalaryRange{}}

		match := svc.ScoreJob(context.Background(), profile, job)

		assert.Equal(t, 0.0, match.Scores.Skill)
		assert.Equal(t, 0.5, match.Scores.Salary)
		// Overall is bounded by the non-skill weights
		assert.LessOrEqual(t, match.OverallScore, 0.4+0.2+0.1+1e-9)
	})

	t.Run("missing salary is neutral", func(t *testing.T) {
		svc := NewMatcherService(&MockVectorSearcher{}, testMatchConfig(), testLogger(t))

		match := svc.ScoreJob(context.Background(), testProfile(), &jobmodel.Job{
			ID: "job-3", Title: "X", Company: "Y", SalaryRaw: "面议",
		})

		assert.Equal(t, 0.5, match.Scores.Salary)
	})
}

func TestMatcherService_MatchJobs(t *testing.T) {
	t.Run("scores every job in input order", func(t *testing.T) {
		svc := NewMatcherService(&MockVectorSearcher{}, testMatchConfig(), testLogger(t))

		jobs := []*jobmodel.Job{
			{ID: "a", Title: "A", Company: "CA", SalaryRaw: "18-24K"},
			{ID: "b", Title: "B", Company: "CB", SalaryRaw: "8-12K"},
			{ID: "c", Title: "C", Company: "CC"},
		}

		matches, err := svc.MatchJobs(context.Background(), testProfile(), jobs)

		require.NoError(t, err)
		require.Len(t, matches, 3)
		for i, match := range matches {
			assert.Equal(t, jobs[i].ID, match.JobID)
			assertScoreBounds(t, match)
		}
	})
}

func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 1.0, experienceScore(5, ""))
	assert.Equal(t, 1.0, experienceScore(5, "3-5年"))
	assert.InDelta(t, 0.6, experienceScore(3, "5年以上"), 1e-9)
	assert.Equal(t, 1.0, experienceScore(0, "经验不限"))
}

func assertScoreBounds(t *testing.T, match *model.ResumeMatch) {
	t.Helper()
	for name, score := range map[string]float64{
		"overall":    match.OverallScore,
		"semantic":   match.Scores.Semantic,
		"skill":      match.Scores.Skill,
		"experience": match.Scores.Experience,
		"salary":     match.Scores.Salary,
		"industry":   match.Scores.Industry,
	} {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 1.0, name)
	}
}
