package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound            = errors.New("play: not found")
	ErrRateLimited         = errors.New("play: rate limited")
	ErrUnknownOrganization = errors.New("unknown organization code")
)

// ReviewQuery parameterizes one provider page fetch.
type ReviewQuery struct {
	Lang    string
	Country string
	Count   int
	Token   string // continuation token; empty starts from the newest review
}

type PlayClient interface {
	FetchReviews(ctx context.Context, appID string, q ReviewQuery) (RawReviewPage, error)
	FetchAppInfo(ctx context.Context, appID, lang, country string) (AppInfo, error)
}

type ReviewRepository interface {
	// Write paths
	UpsertOrganization(ctx context.Context, org Organization) (int64, error)
	RecordAppInfo(ctx context.Context, code string, info AppInfo) error
	UpsertReviews(ctx context.Context, orgID int64, rs []Review) (UpsertResult, error)
	RecordRun(ctx context.Context, c OrgCounts) error

	// Read paths
	ListOrganizations(ctx context.Context) ([]Organization, error)
	ListReviews(ctx context.Context, code string, pg PageQuery) ([]Review, error)
	SentimentCounts(ctx context.Context, code string) (map[string]int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type PageQuery struct {
	Limit int
	Sort  string
}
