package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/autoapply/modules/companies/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool defines the interface for database operations used by the repository
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// CompanyRepository implements ports.CompanyRepository
type CompanyRepository struct {
	pool DBPool
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// NewCompanyRepositoryWithPool creates a repository with a custom pool (for testing)
func NewCompanyRepositoryWithPool(pool DBPool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// GetByName retrieves a company by exact name
func (r *CompanyRepository) GetByName(ctx context.Context, name string) (*model.Company, error) {
	query := `SELECT id, name, reputation, updated_at FROM companies WHERE name = $1`

	company := &model.Company{}
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&company.ID, &company.Name, &company.Reputation, &company.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCompanyNotFound
		}
		return nil, err
	}
	return company, nil
}

// Upsert stores or refreshes a company's reputation
func (r *CompanyRepository) Upsert(ctx context.Context, company *model.Company) error {
	query := `
		INSERT INTO companies (id, name, reputation, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET reputation = EXCLUDED.reputation, updated_at = EXCLUDED.updated_at
	`

	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	company.UpdatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, query, company.ID, company.Name, company.Reputation, company.UpdatedAt)
	return err
}
