package ports

import (
	"context"

	"github.com/andreypavlenko/autoapply/modules/jobs/model"
)

// JobRepository defines the interface for job data access
type JobRepository interface {
	// InsertIfNew inserts a raw job unless its fingerprint already exists
	// among live rows; a collision returns the existing id with wasNew=false.
	InsertIfNew(ctx context.Context, raw *model.RawJob, fingerprint string) (jobID string, wasNew bool, err error)

	// FindByFingerprint returns the live job id with the given fingerprint
	FindByFingerprint(ctx context.Context, fingerprint string) (jobID string, ok bool, err error)

	GetByID(ctx context.Context, jobID string) (*model.Job, error)

	// ListUnprocessed returns live jobs awaiting structured processing
	ListUnprocessed(ctx context.Context, limit int) ([]*model.Job, error)

	// ListMatchCandidates returns processed live jobs with no match row yet
	ListMatchCandidates(ctx context.Context, limit int) ([]*model.Job, error)

	// MarkProcessed applies structured fields and flips rag_processed; idempotent
	MarkProcessed(ctx context.Context, jobID string, fields *model.StructuredFields, docRef string) error

	// SoftDelete marks a job deleted and removes its dependent matches
	SoftDelete(ctx context.Context, jobID, reason string) error
}
