package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/domain"
)

// Fetcher drives the paginated review fetch for one organization at a time:
// pages of min(pageCap, remaining) via the provider's continuation token,
// bounded retry with a fixed delay per page, and a fixed polite delay after
// each successful page. The sequence is non-restartable by design: every run
// starts a fresh cursor at the newest review, so consecutive runs overlap —
// that overlap is the deduplicator's job, not a fetch bug.
type Fetcher struct {
	client     domain.PlayClient
	lang       string
	country    string
	pageCap    int
	maxRetries int
	retryDelay time.Duration
	pageDelay  time.Duration

	// sleep is swappable so tests run without real delays
	sleep func(ctx context.Context, d time.Duration) bool
}

func NewFetcher(client domain.PlayClient, lang, country string, pageCap, maxRetries int, retryDelay, pageDelay time.Duration) *Fetcher {
	if pageCap <= 0 {
		pageCap = 199
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Fetcher{
		client:     client,
		lang:       lang,
		country:    country,
		pageCap:    pageCap,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		pageDelay:  pageDelay,
		sleep:      sleepCtx,
	}
}

// FetchAll collects up to target raw records for org. On retry exhaustion it
// returns whatever was fetched so far together with the final error; the
// caller decides whether partial data is worth keeping (it is).
func (f *Fetcher) FetchAll(ctx context.Context, org domain.Organization, target int) ([]map[string]any, error) {
	var collected []map[string]any
	token := ""

	for len(collected) < target {
		remaining := target - len(collected)
		count := f.pageCap
		if remaining < count {
			count = remaining
		}

		page, err := f.fetchPage(ctx, org, count, token)
		if err != nil {
			return collected, err
		}
		if len(page.Items) == 0 {
			break // provider exhausted
		}
		collected = append(collected, page.Items...)

		log.Debug().
			Str("org", org.Code).
			Int("page_size", len(page.Items)).
			Int("total", len(collected)).
			Msg("review page fetched")

		if page.NextToken == "" {
			break // no continuation cursor
		}
		token = page.NextToken

		// polite delay between pages, part of the provider contract
		if !f.sleep(ctx, f.pageDelay) {
			return collected, ctx.Err()
		}
	}
	return collected, nil
}

// fetchPage retries one page up to maxRetries times with a fixed
// inter-attempt delay.
func (f *Fetcher) fetchPage(ctx context.Context, org domain.Organization, count int, token string) (domain.RawReviewPage, error) {
	q := domain.ReviewQuery{Lang: f.lang, Country: f.country, Count: count, Token: token}

	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		page, err := f.client.FetchReviews(ctx, org.AppID, q)
		if err == nil {
			return page, nil
		}
		lastErr = err
		log.Warn().
			Str("org", org.Code).
			Int("attempt", attempt).
			Int("max", f.maxRetries).
			Err(err).
			Msg("review page fetch failed")
		if attempt < f.maxRetries && !f.sleep(ctx, f.retryDelay) {
			return domain.RawReviewPage{}, ctx.Err()
		}
	}
	return domain.RawReviewPage{}, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
