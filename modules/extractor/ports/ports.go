package ports

import (
	"context"

	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
)

// JobStore is the slice of the job store the extractor needs: the
// fingerprint pre-check that avoids opening detail pages, and the
// deduplicating insert.
type JobStore interface {
	IsKnown(ctx context.Context, title, company, salary, location string) (bool, error)
	InsertIfNew(ctx context.Context, raw *jobmodel.RawJob) (jobID string, wasNew bool, err error)
}
