package ports

import (
	"context"

	"github.com/andreypavlenko/autoapply/modules/companies/model"
)

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	GetByName(ctx context.Context, name string) (*model.Company, error)
	Upsert(ctx context.Context, company *model.Company) error
}
