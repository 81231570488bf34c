package ports

import "context"

// ReputationLookup resolves a company's [0,1] reputation signal
type ReputationLookup interface {
	Reputation(ctx context.Context, name string) float64
}

// SubmissionCounter reports how many submissions succeeded today, for
// the daily quota gate
type SubmissionCounter interface {
	CountSubmissionsToday(ctx context.Context) (int, error)
}
