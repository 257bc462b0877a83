package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"bank_reviews/internal/adapters/observability"
	"bank_reviews/internal/domain"
)

// IngestionService sequences the pipeline per organization:
// resolve → fetch → normalize → dedupe → classify → upsert. A failure inside
// one organization never stops the others.
type IngestionService struct {
	registry   *Registry
	fetcher    *Fetcher
	normalizer *Normalizer
	repo       domain.ReviewRepository
	client     domain.PlayClient
	lang       string
	country    string
}

func NewIngestionService(reg *Registry, f *Fetcher, repo domain.ReviewRepository, client domain.PlayClient, lang, country string) *IngestionService {
	return &IngestionService{
		registry:   reg,
		fetcher:    f,
		normalizer: NewNormalizer(),
		repo:       repo,
		client:     client,
		lang:       lang,
		country:    country,
	}
}

// Run ingests the named organizations with at most workers in flight and
// returns the aggregated summary. Deduplication state is constructed inside
// each worker, never shared across organizations.
func (s *IngestionService) Run(ctx context.Context, codes []string, target, workers int) domain.RunSummary {
	if workers <= 0 {
		workers = 1
	}
	summary := domain.RunSummary{StartedAt: time.Now().UTC()}

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, code := range codes {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Str("org", code).Msg("run canceled before organization started")
			break
		}
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			defer sem.Release(1)

			counts := s.ingestOrganization(ctx, code, target)
			mu.Lock()
			summary.Orgs = append(summary.Orgs, counts)
			mu.Unlock()
		}(code)
	}
	wg.Wait()
	return summary
}

func (s *IngestionService) ingestOrganization(ctx context.Context, code string, target int) domain.OrgCounts {
	counts := domain.OrgCounts{Code: code}

	org, err := s.registry.Resolve(code)
	if err != nil {
		log.Error().Err(err).Str("org", code).Msg("skipping organization")
		counts.FetchErr = err.Error()
		return counts
	}

	// Organization row first so review inserts have their foreign key.
	orgID, err := s.repo.UpsertOrganization(ctx, org)
	if err != nil {
		log.Error().Err(err).Str("org", code).Msg("organization upsert failed")
		counts.FetchErr = err.Error()
		return counts
	}
	org.ID = orgID

	// App metadata is best effort; the review pipeline proceeds without it.
	if info, err := s.client.FetchAppInfo(ctx, org.AppID, s.lang, s.country); err != nil {
		log.Warn().Err(err).Str("org", code).Msg("app info fetch failed")
	} else {
		log.Info().Str("org", code).Str("title", info.Title).Float64("score", info.Score).Msg("app info")
		if err := s.repo.RecordAppInfo(ctx, code, info); err != nil {
			log.Warn().Err(err).Str("org", code).Msg("app info record failed")
		}
	}

	raw, fetchErr := s.fetcher.FetchAll(ctx, org, target)
	if fetchErr != nil {
		// degrade to best effort: keep what was collected
		log.Warn().Err(fetchErr).Str("org", code).Int("collected", len(raw)).Msg("fetch ended early")
		counts.FetchErr = fetchErr.Error()
	}
	counts.Fetched = len(raw)
	observability.ObservePipeline(code, "fetched", counts.Fetched)

	outcome := s.normalizer.Normalize(raw, org)
	counts.Rejected = outcome.Rejected
	observability.ObservePipeline(code, "rejected", counts.Rejected)

	deduper := NewDeduper()
	unique := deduper.Filter(outcome.Reviews)
	counts.Deduped = deduper.Dropped()
	observability.ObservePipeline(code, "deduped", counts.Deduped)

	for i := range unique {
		label := ClassifySentiment(unique[i].Rating)
		unique[i].Sentiment = &label
	}

	res, err := s.repo.UpsertReviews(ctx, orgID, unique)
	if err != nil {
		log.Error().Err(err).Str("org", code).Msg("review batch upsert failed")
		counts.Failed = len(unique)
	} else {
		counts.Persisted = res.Inserted + res.Duplicates
		counts.Failed = res.Failed
	}
	observability.ObservePipeline(code, "persisted", counts.Persisted)
	observability.ObservePipeline(code, "failed", counts.Failed)

	if err := s.repo.RecordRun(ctx, counts); err != nil {
		log.Warn().Err(err).Str("org", code).Msg("run record failed")
	}

	log.Info().
		Str("org", code).
		Int("fetched", counts.Fetched).
		Int("rejected", counts.Rejected).
		Int("deduped", counts.Deduped).
		Int("persisted", counts.Persisted).
		Int("failed", counts.Failed).
		Msg("organization ingested")
	return counts
}
