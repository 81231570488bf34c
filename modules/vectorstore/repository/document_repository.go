package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andreypavlenko/autoapply/modules/vectorstore/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DBPool defines the interface for database operations used by the repository
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DocumentRepository implements ports.DocumentRepository over pgvector
type DocumentRepository struct {
	pool DBPool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// NewDocumentRepositoryWithPool creates a repository with a custom pool (for testing)
func NewDocumentRepositoryWithPool(pool DBPool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Upsert persists documents with their embeddings in one transaction
func (r *DocumentRepository) Upsert(ctx context.Context, docs []*model.JobDocument) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	for _, doc := range docs {
		if !doc.DocumentType.Valid() {
			return nil, fmt.Errorf("%w: %s", model.ErrInvalidDocumentType, doc.DocumentType)
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO job_documents (id, job_id, document_type, content, embedding, site, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	ids := make([]string, 0, len(docs))
	now := time.Now().UTC()
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.New().String()
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		if _, err := tx.Exec(ctx, query,
			doc.ID,
			doc.JobID,
			string(doc.DocumentType),
			doc.Content,
			pgvector.NewVector(doc.Embedding),
			doc.Site,
			doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// Search returns the k nearest documents of non-deleted jobs. Cosine
// distance is folded into a [0,1] score where 1 is identical.
func (r *DocumentRepository) Search(ctx context.Context, query []float32, k int, filter *model.SearchFilter) ([]*model.ScoredDocument, error) {
	conds := []string{"NOT j.is_deleted"}
	args := []interface{}{pgvector.NewVector(query), k}
	next := 3

	if filter != nil {
		if filter.JobID != "" {
			conds = append(conds, fmt.Sprintf("d.job_id = $%d", next))
			args = append(args, filter.JobID)
			next++
		}
		if filter.Site != "" {
			conds = append(conds, fmt.Sprintf("d.site = $%d", next))
			args = append(args, filter.Site)
			next++
		}
		if filter.CreatedAfter != nil {
			conds = append(conds, fmt.Sprintf("d.created_at >= $%d", next))
			args = append(args, *filter.CreatedAfter)
			next++
		}
	}

	sql := fmt.Sprintf(`
		SELECT d.id, d.job_id, d.document_type, d.content, d.site, d.created_at,
		       1 - (d.embedding <=> $1) / 2 AS score
		FROM job_documents d
		JOIN jobs j ON j.id = d.job_id
		WHERE %s
		ORDER BY d.embedding <=> $1
		LIMIT $2
	`, strings.Join(conds, " AND "))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.ScoredDocument
	for rows.Next() {
		doc := &model.JobDocument{}
		var score float64
		var docType string
		if err := rows.Scan(&doc.ID, &doc.JobID, &docType, &doc.Content, &doc.Site, &doc.CreatedAt, &score); err != nil {
			return nil, err
		}
		doc.DocumentType = model.DocumentType(docType)
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		results = append(results, &model.ScoredDocument{Document: doc, Score: score})
	}
	return results, rows.Err()
}

// DeleteByJob removes all documents of a job
func (r *DocumentRepository) DeleteByJob(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM job_documents WHERE job_id = $1`, jobID)
	return err
}
