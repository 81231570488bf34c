package model

// OverviewAnalytics contains high-level pipeline statistics
type OverviewAnalytics struct {
	TotalJobs       int     `json:"total_jobs"`
	ProcessedJobs   int     `json:"processed_jobs"`
	DeletedJobs     int     `json:"deleted_jobs"`
	TotalMatches    int     `json:"total_matches"`
	SubmitReady     int     `json:"submit_ready"`
	Submitted       int     `json:"submitted"`
	SuccessRate     float64 `json:"success_rate"`
	AvgOverallScore float64 `json:"avg_overall_score"`
}

// FunnelStage represents a single stage in the submission funnel
type FunnelStage struct {
	StageName      string  `json:"stage_name"`
	Count          int     `json:"count"`
	ConversionRate float64 `json:"conversion_rate"`
}

// FunnelAnalytics contains the extracted → submitted funnel
type FunnelAnalytics struct {
	Stages []FunnelStage `json:"stages"`
}

// ScoreBucket is one histogram bucket of overall match scores
type ScoreBucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// ScoreDistribution contains the overall-score histogram
type ScoreDistribution struct {
	Buckets []ScoreBucket `json:"buckets"`
}

// DailySubmissions is one day's submission outcome counts
type DailySubmissions struct {
	Day       string `json:"day"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
}

// SubmissionAnalytics contains per-day submission counts
type SubmissionAnalytics struct {
	Days []DailySubmissions `json:"days"`
}

// SiteMetrics contains per-site extraction and submission metrics
type SiteMetrics struct {
	Site           string  `json:"site"`
	JobsExtracted  int     `json:"jobs_extracted"`
	MatchesCreated int     `json:"matches_created"`
	Submitted      int     `json:"submitted"`
	ConversionRate float64 `json:"conversion_rate"`
}

// SiteAnalytics contains metrics grouped by source site
type SiteAnalytics struct {
	Sites []SiteMetrics `json:"sites"`
}
