package ports

import (
	"context"

	"github.com/andreypavlenko/autoapply/modules/matcher/model"
)

// MatchRepository defines the interface for resume match data access
type MatchRepository interface {
	// Insert persists a scored and decided match in one transaction
	Insert(ctx context.Context, match *model.ResumeMatch) error

	GetByID(ctx context.Context, matchID string) (*model.ResumeMatch, error)

	// ListUnprocessed returns unprocessed matches of live jobs ordered by
	// overall score, optionally floored by salary score
	ListUnprocessed(ctx context.Context, limit int, minSalaryScore float64) ([]*model.PendingMatch, error)

	// MarkProcessed flips processed=false→true exactly once; a second call
	// fails with ErrMatchAlreadyProcessed
	MarkProcessed(ctx context.Context, matchID string) error

	// CountPending returns how many unprocessed matches remain
	CountPending(ctx context.Context) (int, error)
}
