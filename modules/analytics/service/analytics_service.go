package service

import (
	"context"

	"github.com/andreypavlenko/autoapply/modules/analytics/model"
	"github.com/andreypavlenko/autoapply/modules/analytics/ports"
)

type AnalyticsService struct {
	repo ports.AnalyticsRepository
}

func NewAnalyticsService(repo ports.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// GetOverview returns high-level pipeline statistics
func (s *AnalyticsService) GetOverview(ctx context.Context) (*model.OverviewAnalytics, error) {
	return s.repo.GetOverview(ctx)
}

// GetFunnel returns the extracted → submitted funnel
func (s *AnalyticsService) GetFunnel(ctx context.Context) (*model.FunnelAnalytics, error) {
	return s.repo.GetFunnel(ctx)
}

// GetScoreDistribution returns the overall-score histogram
func (s *AnalyticsService) GetScoreDistribution(ctx context.Context) (*model.ScoreDistribution, error) {
	return s.repo.GetScoreDistribution(ctx)
}

// GetDailySubmissions returns per-day submission counts
func (s *AnalyticsService) GetDailySubmissions(ctx context.Context, days int) (*model.SubmissionAnalytics, error) {
	if days <= 0 || days > 90 {
		days = 30
	}
	return s.repo.GetDailySubmissions(ctx, days)
}

// GetSiteAnalytics returns metrics grouped by source site
func (s *AnalyticsService) GetSiteAnalytics(ctx context.Context) (*model.SiteAnalytics, error) {
	return s.repo.GetSiteAnalytics(ctx)
}
