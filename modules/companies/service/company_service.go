package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andreypavlenko/autoapply/modules/companies/model"
	"github.com/andreypavlenko/autoapply/modules/companies/ports"
	"github.com/redis/go-redis/v9"
)

const reputationCacheTTL = 24 * time.Hour

// CompanyService resolves company reputation with a redis cache in
// front of the relational store
type CompanyService struct {
	repo  ports.CompanyRepository
	cache redis.Cmdable
}

// NewCompanyService creates a new company service
func NewCompanyService(repo ports.CompanyRepository, cache redis.Cmdable) *CompanyService {
	return &CompanyService{repo: repo, cache: cache}
}

// Reputation returns the [0,1] reputation of a company, defaulting to
// 0.5 for unknown companies. Cache and store failures degrade to the
// default rather than failing the caller.
func (s *CompanyService) Reputation(ctx context.Context, name string) float64 {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.DefaultReputation
	}

	key := cacheKey(name)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			if v, err := strconv.ParseFloat(cached, 64); err == nil {
				return v
			}
		}
	}

	company, err := s.repo.GetByName(ctx, name)
	reputation := model.DefaultReputation
	if err == nil {
		reputation = company.Reputation
	} else if !errors.Is(err, model.ErrCompanyNotFound) {
		return model.DefaultReputation
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, strconv.FormatFloat(reputation, 'f', -1, 64), reputationCacheTTL).Err()
	}
	return reputation
}

// SetReputation stores a curated reputation value and refreshes the cache
func (s *CompanyService) SetReputation(ctx context.Context, name string, reputation float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ErrCompanyNameRequired
	}
	if reputation < 0 || reputation > 1 {
		return fmt.Errorf("reputation must be in [0,1], got %v", reputation)
	}

	if err := s.repo.Upsert(ctx, &model.Company{Name: name, Reputation: reputation}); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey(name), strconv.FormatFloat(reputation, 'f', -1, 64), reputationCacheTTL).Err()
	}
	return nil
}

func cacheKey(name string) string {
	return "company:reputation:" + strings.ToLower(name)
}
