package model

// FailedJob is a diagnostic record for a card that could not be extracted
type FailedJob struct {
	Keyword string
	Page    int
	Title   string
	Company string
	Reason  string
}

// KeywordStats aggregates extraction outcomes for one search keyword
type KeywordStats struct {
	Keyword      string
	PagesVisited int
	CardsSeen    int
	Extracted    int
	DedupSkipped int
	Failed       int
	FailedJobs   []FailedJob
	Warnings     []string
}

// ExtractStats aggregates outcomes across all keywords of a run
type ExtractStats struct {
	Keywords     []KeywordStats
	Extracted    int
	DedupSkipped int
	Failed       int
	Warnings     []string
}

// Add folds one keyword's stats into the run totals
func (s *ExtractStats) Add(ks KeywordStats) {
	s.Keywords = append(s.Keywords, ks)
	s.Extracted += ks.Extracted
	s.DedupSkipped += ks.DedupSkipped
	s.Failed += ks.Failed
	s.Warnings = append(s.Warnings, ks.Warnings...)
}
