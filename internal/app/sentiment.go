package app

const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// ClassifySentiment maps a validated 1..5 rating to a coarse label:
// 4 and above is Positive, 3 is Neutral, 2 and below is Negative.
func ClassifySentiment(rating int) string {
	switch {
	case rating >= 4:
		return SentimentPositive
	case rating == 3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}
