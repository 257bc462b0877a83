package gplay_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bank_reviews/internal/adapters/gplay"
	"bank_reviews/internal/domain"
)

// reviewsBody builds a batchexecute response carrying the given positional
// review items and continuation token.
func reviewsBody(t *testing.T, items []any, token string) string {
	t.Helper()
	var cont any
	if token != "" {
		cont = []any{nil, token}
	}
	payload, err := json.Marshal([]any{items, cont})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	outer, err := json.Marshal([]any{[]any{"wrb.fr", "UsvDTd", string(payload)}})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return ")]}'\n\n" + string(outer)
}

func sampleItem() []any {
	return []any{
		"rev-1",                       // reviewId
		[]any{"Abel"},                 // user
		5.0,                           // score
		nil,                           // -
		"Great banking app",           // content
		[]any{1683108000.0},           // at (unix seconds)
		3.0,                           // thumbs up
		[]any{nil, "thank you"},       // reply
		nil, nil,                      // -
		"5.2.1",                       // review created version
	}
}

func TestFetchReviews_DecodesEnvelope(t *testing.T) {
	body := reviewsBody(t, []any{sampleItem()}, "tok-2")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("f.req") == "" {
			t.Errorf("missing f.req form value")
		}
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	cl, err := gplay.New(ts.URL, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	page, err := cl.FetchReviews(ctx, "com.combanketh.mobilebanking", domain.ReviewQuery{Lang: "en", Country: "et", Count: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.NextToken != "tok-2" {
		t.Fatalf("expected continuation token, got %q", page.NextToken)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}

	raw := page.Items[0]
	if raw["reviewId"] != "rev-1" || raw["content"] != "Great banking app" || raw["userName"] != "Abel" {
		t.Fatalf("unexpected raw record: %+v", raw)
	}
	if raw["score"] != 5.0 || raw["thumbsUpCount"] != 3.0 {
		t.Fatalf("numeric fields lost: %+v", raw)
	}
	if raw["at"] != "2023-05-03T10:00:00Z" {
		t.Fatalf("unexpected at: %v", raw["at"])
	}
	if raw["replyContent"] != "thank you" || raw["reviewCreatedVersion"] != "5.2.1" {
		t.Fatalf("optional fields lost: %+v", raw)
	}
}

func TestFetchReviews_ExhaustedStream(t *testing.T) {
	body := reviewsBody(t, nil, "")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	cl, _ := gplay.New(ts.URL, 100)
	page, err := cl.FetchReviews(context.Background(), "app", domain.ReviewQuery{Count: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(page.Items) != 0 || page.NextToken != "" {
		t.Fatalf("expected empty page without token, got %+v", page)
	}
}

func TestFetchReviews_RetriesThenSuccess(t *testing.T) {
	var hits int32
	body := reviewsBody(t, []any{sampleItem()}, "")
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			_, _ = w.Write([]byte(body))
		}
	}))
	defer ts.Close()

	cl, _ := gplay.New(ts.URL, 100)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	page, err := cl.FetchReviews(ctx, "app", domain.ReviewQuery{Count: 10})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item after retries, got %d", len(page.Items))
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestFetchReviews_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := gplay.New(ts.URL, 100)
	_, err := cl.FetchReviews(context.Background(), "gone", domain.ReviewQuery{Count: 10})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchAppInfo(t *testing.T) {
	page := `<!doctype html><html><head>
<script type="application/ld+json" nonce="x">
{"name":"CBE Mobile Banking","aggregateRating":{"ratingValue":"4.1","ratingCount":"31456"}}
</script></head><body></body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "com.combanketh.mobilebanking" {
			t.Errorf("unexpected id %q", got)
		}
		_, _ = w.Write([]byte(page))
	}))
	defer ts.Close()

	cl, _ := gplay.New(ts.URL, 100)
	info, err := cl.FetchAppInfo(context.Background(), "com.combanketh.mobilebanking", "en", "et")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if info.Title != "CBE Mobile Banking" || info.Score != 4.1 || info.Ratings != 31456 {
		t.Fatalf("unexpected info: %+v", info)
	}
}
