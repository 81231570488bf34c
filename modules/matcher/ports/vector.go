package ports

import (
	"context"

	vsmodel "github.com/andreypavlenko/autoapply/modules/vectorstore/model"
)

// VectorSearcher is the retrieval capability the semantic dimension uses
type VectorSearcher interface {
	TimeAwareSearch(ctx context.Context, query string, k int, strategy vsmodel.SearchStrategy, filter *vsmodel.SearchFilter) ([]*vsmodel.ScoredDocument, error)
}
