package ports

import (
	"context"

	jobmodel "github.com/andreypavlenko/autoapply/modules/jobs/model"
	vsmodel "github.com/andreypavlenko/autoapply/modules/vectorstore/model"
)

// JobStore is the slice of the job store the processor needs
type JobStore interface {
	ListUnprocessed(ctx context.Context, limit int) ([]*jobmodel.Job, error)
	MarkProcessed(ctx context.Context, jobID string, fields *jobmodel.StructuredFields, docRef string) error
}

// DocumentUpserter persists job documents with embeddings
type DocumentUpserter interface {
	UpsertDocuments(ctx context.Context, docs []*vsmodel.JobDocument) ([]string, error)
}
