package app_test

import (
	"testing"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
)

var testOrg = domain.Organization{Code: "CBE", DisplayName: "Commercial Bank of Ethiopia", AppID: "com.combanketh.mobilebanking"}

func TestNormalize_RejectsEmptyTextAndBadRatings(t *testing.T) {
	n := app.NewNormalizer()
	items := []map[string]any{
		{"content": "good app", "score": 5.0, "reviewId": "a"},
		{"content": "", "score": 4.0, "reviewId": "b"},
		{"content": "   \t  ", "score": 4.0, "reviewId": "c"},
		{"score": 3.0, "reviewId": "d"},
		{"content": "no rating", "reviewId": "e"},
		{"content": "rating zero", "score": 0.0, "reviewId": "f"},
		{"content": "rating six", "score": 6.0, "reviewId": "g"},
	}
	out := n.Normalize(items, testOrg)

	if len(out.Reviews) != 1 {
		t.Fatalf("expected 1 surviving review, got %d", len(out.Reviews))
	}
	if out.Rejected != 6 {
		t.Fatalf("expected 6 rejects, got %d", out.Rejected)
	}
	for _, rv := range out.Reviews {
		if rv.Rating < 1 || rv.Rating > 5 {
			t.Fatalf("out-of-range rating leaked: %d", rv.Rating)
		}
	}
}

func TestNormalize_AliasPrecedence(t *testing.T) {
	n := app.NewNormalizer()
	items := []map[string]any{
		// both conventions present: content/score/at win over review/rating/date
		{
			"content": "from content", "review": "from review",
			"score": 2.0, "rating": 5.0,
			"at": "2023-01-10", "date": "2020-01-01",
			"reviewId": "r1",
		},
		// legacy convention only
		{"review": "legacy shape", "rating": 4.0, "date": "2021-07-09"},
	}
	out := n.Normalize(items, testOrg)
	if len(out.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d (rejected=%d)", len(out.Reviews), out.Rejected)
	}

	first := out.Reviews[0]
	if first.Text != "from content" || first.Rating != 2 {
		t.Fatalf("precedence violated: %+v", first)
	}
	if first.Date == nil || *first.Date != "2023-01-10" {
		t.Fatalf("expected date 2023-01-10, got %v", first.Date)
	}

	second := out.Reviews[1]
	if second.Text != "legacy shape" || second.Rating != 4 {
		t.Fatalf("legacy aliases not honored: %+v", second)
	}
	if !second.DerivedID || second.ID == "" {
		t.Fatalf("expected derived id for record without reviewId: %+v", second)
	}
}

func TestNormalize_WhitespaceCollapse(t *testing.T) {
	n := app.NewNormalizer()
	out := n.Normalize([]map[string]any{
		{"content": "  spaced \n\t out   text ", "score": 3.0, "reviewId": "w"},
	}, testOrg)
	if len(out.Reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(out.Reviews))
	}
	if got := out.Reviews[0].Text; got != "spaced out text" {
		t.Fatalf("whitespace not collapsed: %q", got)
	}
}

func TestNormalize_Dates(t *testing.T) {
	n := app.NewNormalizer()
	cases := []struct {
		name string
		in   any
		want string // "" means null expected
	}{
		{"iso timestamp non-padded", "2023-5-3T10:00:00Z", "2023-05-03"},
		{"plain date", "2023-05-03", "2023-05-03"},
		{"datetime", "2024-11-30 08:15:00", "2024-11-30"},
		{"unix seconds", 1683108000.0, "2023-05-03"},
		{"unparsable", "N/A", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := n.Normalize([]map[string]any{
				{"content": "text", "score": 4.0, "reviewId": "x", "at": tc.in},
			}, testOrg)
			if len(out.Reviews) != 1 {
				t.Fatalf("record should survive date issues, got %d reviews", len(out.Reviews))
			}
			d := out.Reviews[0].Date
			if tc.want == "" {
				if d != nil {
					t.Fatalf("expected null date, got %q", *d)
				}
				if out.DateFailures != 1 {
					t.Fatalf("expected 1 counted date failure, got %d", out.DateFailures)
				}
				return
			}
			if d == nil || *d != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, d)
			}
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	n := app.NewNormalizer()
	out := n.Normalize([]map[string]any{
		{"content": "bare minimum", "score": 1.0, "reviewId": "min"},
		{
			"content": "full record", "score": 5.0, "reviewId": "full",
			"userName": "Abel", "thumbsUpCount": 7.0,
			"replyContent": "thanks", "reviewCreatedVersion": "5.2.1",
		},
	}, testOrg)
	if len(out.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(out.Reviews))
	}

	bare := out.Reviews[0]
	if bare.UserName != "Anonymous" || bare.ThumbsUp != 0 || bare.ReplyText != nil || bare.AppVersion != nil {
		t.Fatalf("defaults not applied: %+v", bare)
	}
	if bare.Source != app.SourceName {
		t.Fatalf("unexpected source %q", bare.Source)
	}

	full := out.Reviews[1]
	if full.UserName != "Abel" || full.ThumbsUp != 7 {
		t.Fatalf("explicit fields lost: %+v", full)
	}
	if full.ReplyText == nil || *full.ReplyText != "thanks" {
		t.Fatalf("reply lost: %+v", full)
	}
	if full.AppVersion == nil || *full.AppVersion != "5.2.1" {
		t.Fatalf("app version lost: %+v", full)
	}
	if full.DerivedID {
		t.Fatalf("provider-supplied id must not be marked derived")
	}
}
