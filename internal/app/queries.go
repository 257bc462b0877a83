package app

import (
	"context"
	"fmt"
	"time"

	"bank_reviews/internal/domain"
)

// QueryService is the cached read side over the persisted review table.
type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	key := "orgs"
	var out []domain.Organization
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	orgs, err := s.repo.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, orgs, int(s.cacheTTL.Seconds()))
	return orgs, nil
}

func (s *QueryService) ListReviews(ctx context.Context, code string, pg domain.PageQuery) ([]domain.Review, error) {
	key := fmt.Sprintf("reviews:%s:%d", code, pg.Limit)
	var out []domain.Review
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListReviews(ctx, code, pg)
	if err != nil {
		return nil, err
	}

	// copy so cached value never aliases the repo's backing array
	cp := make([]domain.Review, len(rs))
	copy(cp, rs)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func (s *QueryService) SentimentCounts(ctx context.Context, code string) (map[string]int, error) {
	key := fmt.Sprintf("sentiment:%s", code)
	var out map[string]int
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	counts, err := s.repo.SentimentCounts(ctx, code)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, counts, int(s.cacheTTL.Seconds()))
	return counts, nil
}
