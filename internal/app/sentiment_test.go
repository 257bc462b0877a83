package app_test

import (
	"testing"

	"bank_reviews/internal/app"
)

func TestClassifySentiment(t *testing.T) {
	cases := map[int]string{
		5: app.SentimentPositive,
		4: app.SentimentPositive,
		3: app.SentimentNeutral,
		2: app.SentimentNegative,
		1: app.SentimentNegative,
	}
	for rating, want := range cases {
		if got := app.ClassifySentiment(rating); got != want {
			t.Errorf("rating %d: got %q, want %q", rating, got, want)
		}
	}
}
