package ports

import (
	"context"

	"github.com/andreypavlenko/autoapply/modules/vectorstore/model"
)

// DocumentRepository defines the interface for vector document access
type DocumentRepository interface {
	// Upsert persists documents with their embeddings and returns their ids
	Upsert(ctx context.Context, docs []*model.JobDocument) ([]string, error)

	// Search returns the k nearest live documents to the query vector,
	// scores normalized to [0,1]
	Search(ctx context.Context, query []float32, k int, filter *model.SearchFilter) ([]*model.ScoredDocument, error)

	// DeleteByJob removes all documents of a job
	DeleteByJob(ctx context.Context, jobID string) error
}
