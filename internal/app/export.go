package app

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"bank_reviews/internal/domain"
)

var exportHeader = []string{
	"review_id", "organization_code", "review_text", "rating", "review_date",
	"user_name", "thumbs_up", "reply_text", "app_version", "source",
	"sentiment", "text_length", "ingested_at",
}

// ExportCSV writes the canonical table for the given organizations as one
// CSV, the hand-off artifact the plotting layer consumes. text_length is
// derived on the way out, it is not a stored column.
func ExportCSV(ctx context.Context, repo domain.ReviewRepository, codes []string, perOrgLimit int, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, err
	}

	total := 0
	for _, code := range codes {
		rs, err := repo.ListReviews(ctx, code, domain.PageQuery{Limit: perOrgLimit})
		if err != nil {
			return total, err
		}
		for _, rv := range rs {
			rec := []string{
				rv.ID,
				rv.OrgCode,
				rv.Text,
				strconv.Itoa(rv.Rating),
				strOrEmpty(rv.Date),
				rv.UserName,
				strconv.Itoa(rv.ThumbsUp),
				strOrEmpty(rv.ReplyText),
				strOrEmpty(rv.AppVersion),
				rv.Source,
				strOrEmpty(rv.Sentiment),
				strconv.Itoa(len(rv.Text)),
				rv.IngestedAt.UTC().Format("2006-01-02 15:04:05"),
			}
			if err := cw.Write(rec); err != nil {
				return total, err
			}
			total++
		}
	}
	cw.Flush()
	return total, cw.Error()
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
