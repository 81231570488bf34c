package ports

import (
	"context"

	"github.com/andreypavlenko/autoapply/modules/submitter/model"
)

// SubmissionRepository defines the interface for submission log access
type SubmissionRepository interface {
	// AppendLog records a non-terminal attempt without touching the match
	AppendLog(ctx context.Context, log *model.SubmissionLog) error

	// Finalize writes a terminal log and flips the match's processed flag
	// in a single transaction; fails if the match is already processed
	Finalize(ctx context.Context, log *model.SubmissionLog) error

	// CountSubmissionsToday counts SUCCESS logs on the current calendar day
	CountSubmissionsToday(ctx context.Context) (int, error)

	// RepairInconsistencies marks processed any unprocessed match that
	// already carries a terminal log (crash between log and flag flip).
	// Returns how many matches were repaired.
	RepairInconsistencies(ctx context.Context) (int, error)
}

// JobSoftDeleter removes suspended jobs from the live set
type JobSoftDeleter interface {
	SoftDelete(ctx context.Context, jobID, reason string) error
}

// SnapshotArchiver stores page snapshots of anomalous attempts; a nil
// archiver disables archival
type SnapshotArchiver interface {
	ArchiveSnapshot(ctx context.Context, jobID, status, pageSource string) (string, error)
}
