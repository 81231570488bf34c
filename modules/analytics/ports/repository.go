package ports

import (
	"context"

	"github.com/andreypavlenko/autoapply/modules/analytics/model"
)

// AnalyticsRepository defines the interface for analytics data access.
// Everything here is read-only over the pipeline's own tables, so
// outside consumers (the Q&A assistant among them) need no special
// privilege.
type AnalyticsRepository interface {
	// GetOverview returns high-level pipeline statistics
	GetOverview(ctx context.Context) (*model.OverviewAnalytics, error)

	// GetFunnel returns the extracted → submitted funnel
	GetFunnel(ctx context.Context) (*model.FunnelAnalytics, error)

	// GetScoreDistribution returns the overall-score histogram
	GetScoreDistribution(ctx context.Context) (*model.ScoreDistribution, error)

	// GetDailySubmissions returns per-day submission counts
	GetDailySubmissions(ctx context.Context, days int) (*model.SubmissionAnalytics, error)

	// GetSiteAnalytics returns metrics grouped by source site
	GetSiteAnalytics(ctx context.Context) (*model.SiteAnalytics, error)
}
