package service

import (
	"context"
	"errors"
	"testing"

	"github.com/andreypavlenko/autoapply/modules/companies/model"
	"github.com/stretchr/testify/assert"
)

// MockCompanyRepository implements ports.CompanyRepository
type MockCompanyRepository struct {
	GetByNameFunc func(ctx context.Context, name string) (*model.Company, error)
	UpsertFunc    func(ctx context.Context, company *model.Company) error
}

func (m *MockCompanyRepository) GetByName(ctx context.Context, name string) (*model.Company, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	return nil, model.ErrCompanyNotFound
}

func (m *MockCompanyRepository) Upsert(ctx context.Context, company *model.Company) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, company)
	}
	return nil
}

func TestCompanyService_Reputation(t *testing.T) {
	t.Run("returns the stored reputation", func(t *testing.T) {
		repo := &MockCompanyRepository{
			GetByNameFunc: func(ctx context.Context, name string) (*model.Company, error) {
				return &model.Company{Name: name, Reputation: 0.8}, nil
			},
		}
		svc := NewCompanyService(repo, nil)

		assert.Equal(t, 0.8, svc.Reputation(context.Background(), "星云科技"))
	})

	t.Run("unknown company defaults to neutral", func(t *testing.T) {
		svc := NewCompanyService(&MockCompanyRepository{}, nil)

		assert.Equal(t, model.DefaultReputation, svc.Reputation(context.Background(), "无名公司"))
	})

	t.Run("store failure degrades to neutral", func(t *testing.T) {
		repo := &MockCompanyRepository{
			GetByNameFunc: func(ctx context.Context, name string) (*model.Company, error) {
				return nil, errors.New("store offline")
			},
		}
		svc := NewCompanyService(repo, nil)

		assert.Equal(t, model.DefaultReputation, svc.Reputation(context.Background(), "星云科技"))
	})

	t.Run("empty name is neutral", func(t *testing.T) {
		svc := NewCompanyService(&MockCompanyRepository{}, nil)

		assert.Equal(t, model.DefaultReputation, svc.Reputation(context.Background(), "  "))
	})
}

func TestCompanyService_SetReputation(t *testing.T) {
	t.Run("stores a curated value", func(t *testing.T) {
		var stored *model.Company
		repo := &MockCompanyRepository{
			UpsertFunc: func(ctx context.Context, company *model.Company) error {
				stored = company
				return nil
			},
		}
		svc := NewCompanyService(repo, nil)

		err := svc.SetReputation(context.Background(), "星云科技", 0.9)

		assert.NoError(t, err)
		assert.Equal(t, 0.9, stored.Reputation)
	})

	t.Run("rejects out-of-range values", func(t *testing.T) {
		svc := NewCompanyService(&MockCompanyRepository{}, nil)

		assert.Error(t, svc.SetReputation(context.Background(), "星云科技", 1.5))
	})

	t.Run("rejects empty names", func(t *testing.T) {
		svc := NewCompanyService(&MockCompanyRepository{}, nil)

		assert.Equal(t, model.ErrCompanyNameRequired, svc.SetReputation(context.Background(), "", 0.5))
	})
}
