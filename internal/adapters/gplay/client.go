// internal/adapters/gplay/client.go
package gplay

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bank_reviews/internal/domain"
)

// Client talks to the Google Play web frontend: the batchexecute RPC for
// paginated reviews and the public store page for app metadata.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// FetchReviews retrieves one review page for appID. An empty q.Token starts
// from the newest review; the returned page carries the token for the next
// call (empty when the stream is exhausted).
func (c *Client) FetchReviews(ctx context.Context, appID string, q domain.ReviewQuery) (domain.RawReviewPage, error) {
	u := fmt.Sprintf("%s/_/PlayStoreUi/data/batchexecute?rpcids=%s&hl=%s&gl=%s",
		c.base, reviewsRPCID, url.QueryEscape(q.Lang), url.QueryEscape(q.Country))
	form := url.Values{"f.req": {reviewsPayload(appID, q.Count, q.Token)}}

	body, err := c.do(ctx, http.MethodPost, u, form.Encode(), "application/x-www-form-urlencoded;charset=UTF-8")
	if err != nil {
		return domain.RawReviewPage{}, err
	}
	items, next, err := decodeReviewsEnvelope(body)
	if err != nil {
		return domain.RawReviewPage{}, fmt.Errorf("decode reviews for %s: %w", appID, err)
	}
	return domain.RawReviewPage{Items: items, NextToken: next}, nil
}

// FetchAppInfo scrapes title and aggregate rating from the app's store page.
func (c *Client) FetchAppInfo(ctx context.Context, appID, lang, country string) (domain.AppInfo, error) {
	u := fmt.Sprintf("%s/store/apps/details?id=%s&hl=%s&gl=%s",
		c.base, url.QueryEscape(appID), url.QueryEscape(lang), url.QueryEscape(country))

	body, err := c.do(ctx, http.MethodGet, u, "", "")
	if err != nil {
		return domain.AppInfo{}, err
	}
	info, err := decodeAppPage(body)
	if err != nil {
		return domain.AppInfo{}, fmt.Errorf("decode app page for %s: %w", appID, err)
	}
	info.AppID = appID
	return info, nil
}

// do performs one logical request with client-side rate limiting and a small
// bounded retry on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) do(ctx context.Context, method, u, payload, contentType string) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		var body io.Reader
		if payload != "" {
			body = strings.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("User-Agent", "bank-reviews/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return b, err

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, domain.ErrNotFound

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			code := resp.StatusCode
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			if code == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w (attempt %d)", domain.ErrRateLimited, i+1)
			} else {
				lastErr = fmt.Errorf("remote %d", code)
			}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
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

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% crypto-rand jitter, safe under concurrent workers.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}

var _ domain.PlayClient = (*Client)(nil)
