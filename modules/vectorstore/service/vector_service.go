package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andreypavlenko/autoapply/internal/platform/embedding"
	"github.com/andreypavlenko/autoapply/modules/vectorstore/model"
	"github.com/andreypavlenko/autoapply/modules/vectorstore/ports"
)

// VectorService wraps the embedding capability and the document store,
// adding time-aware retrieval on top of plain similarity search.
type VectorService struct {
	repo     ports.DocumentRepository
	embedder embedding.Embedder
}

// NewVectorService creates a new vector store service
func NewVectorService(repo ports.DocumentRepository, embedder embedding.Embedder) *VectorService {
	return &VectorService{repo: repo, embedder: embedder}
}

// UpsertDocuments embeds document contents and persists them, returning doc refs
func (s *VectorService) UpsertDocuments(ctx context.Context, docs []*model.JobDocument) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, vec := range vectors {
		docs[i].Embedding = vec
	}

	return s.repo.Upsert(ctx, docs)
}

// SimilaritySearch returns the k most similar documents, scores in [0,1]
func (s *VectorService) SimilaritySearch(ctx context.Context, query string, k int, filter *model.SearchFilter) ([]*model.ScoredDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, model.ErrEmptyQuery
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, vectors[0], k, filter)
}

// TimeAwareSearch blends similarity with document freshness according to
// the chosen strategy
func (s *VectorService) TimeAwareSearch(ctx context.Context, query string, k int, strategy model.SearchStrategy, filter *model.SearchFilter) ([]*model.ScoredDocument, error) {
	if !strategy.Valid() {
		return nil, model.ErrInvalidStrategy
	}

	// Over-fetch so re-ranking has candidates to promote
	results, err := s.SimilaritySearch(ctx, query, k*2, filter)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rerank(results, strategy, now)

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func rerank(results []*model.ScoredDocument, strategy model.SearchStrategy, now time.Time) {
	switch strategy {
	case model.StrategyFreshFirst:
		// Recency wins inside 0.1-wide similarity tiers
		sort.SliceStable(results, func(i, j int) bool {
			ti := math.Floor(results[i].Score * 10)
			tj := math.Floor(results[j].Score * 10)
			if ti != tj {
				return ti > tj
			}
			return results[i].Document.CreatedAt.After(results[j].Document.CreatedAt)
		})
	case model.StrategyBalanced:
		for _, r := range results {
			r.Score = 0.5*r.Score + 0.5*TimeWeight(r.Document.CreatedAt, now)
		}
		sortByScore(results)
	default: // hybrid
		for _, r := range results {
			age := now.Sub(r.Document.CreatedAt)
			score := 0.7*r.Score + 0.3*TimeWeight(r.Document.CreatedAt, now)
			if age <= 7*24*time.Hour {
				score += 0.2
			}
			if score > 1 {
				score = 1
			}
			r.Score = score
		}
		sortByScore(results)
	}
}

func sortByScore(results []*model.ScoredDocument) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// TimeWeight maps a document's age to a freshness weight:
// 0-7 days decay linearly 1.0→0.7, 7-30 days 0.7→0.4, beyond 30 days
// the weight decays exponentially with factor 0.1 and floors at 0.1.
func TimeWeight(createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	if days < 0 {
		days = 0
	}

	switch {
	case days <= 7:
		return 1.0 - (days/7)*0.3
	case days <= 30:
		return 0.7 - ((days-7)/23)*0.3
	default:
		w := 0.4 * math.Exp(-0.1*(days-30))
		if w < 0.1 {
			w = 0.1
		}
		return w
	}
}
