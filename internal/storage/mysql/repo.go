package mysql

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertOrganization(ctx context.Context, org domain.Organization) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertOrganizationSQL, org.Code, org.DisplayName, org.AppID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) RecordAppInfo(ctx context.Context, code string, info domain.AppInfo) error {
	_, err := r.db.ExecContext(ctx, recordAppInfoSQL, info.Title, info.Score, info.Ratings, code)
	return err
}

// UpsertReviews writes one batch inside a single transaction. Each row is an
// independent unit: a primary-key conflict counts as a duplicate no-op, any
// other row error is logged with the offending id and counted, and the
// commit is still attempted so partial success is durable.
func (r *Repo) UpsertReviews(ctx context.Context, orgID int64, rs []domain.Review) (domain.UpsertResult, error) {
	var out domain.UpsertResult
	if len(rs) == 0 {
		return out, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer tx.Rollback() // no-op after a successful commit

	for _, rv := range rs {
		res, err := tx.ExecContext(ctx, insertReviewSQL,
			rv.ID,
			orgID,
			rv.Text,
			rv.Rating,
			valStr(rv.Date),
			rv.ThumbsUp,
			rv.UserName,
			valStr(rv.ReplyText),
			valStr(rv.AppVersion),
			rv.Source,
			valStr(rv.Sentiment),
			rv.IngestedAt,
		)
		if err != nil {
			out.Failed++
			log.Warn().Err(err).Str("review_id", rv.ID).Msg("review insert failed")
			continue
		}
		// MySQL reports 1 affected row for an insert and 0 when the
		// self-assigning duplicate-key update changed nothing.
		if n, _ := res.RowsAffected(); n == 1 {
			out.Inserted++
		} else {
			out.Duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.UpsertResult{Failed: len(rs)}, err
	}
	return out, nil
}

func (r *Repo) RecordRun(ctx context.Context, c domain.OrgCounts) error {
	var fetchErr any
	if c.FetchErr != "" {
		fetchErr = c.FetchErr
	}
	_, err := r.db.ExecContext(ctx, recordRunSQL,
		c.Code, c.Fetched, c.Rejected, c.Deduped, c.Persisted, c.Failed, fetchErr)
	return err
}

func (r *Repo) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.db.QueryContext(ctx, listOrganizationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Organization
	for rows.Next() {
		var o domain.Organization
		if err := rows.Scan(&o.ID, &o.Code, &o.DisplayName, &o.AppID); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, code string, pg domain.PageQuery) ([]domain.Review, error) {
	limit := pg.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var (
			date       sql.NullTime
			reply      sql.NullString
			appVersion sql.NullString
			sentiment  sql.NullString
		)
		if err := rows.Scan(
			&rv.ID, &rv.OrgCode, &rv.Text, &rv.Rating, &date,
			&rv.ThumbsUp, &rv.UserName, &reply, &appVersion, &rv.Source,
			&sentiment, &rv.IngestedAt,
		); err != nil {
			return nil, err
		}
		if date.Valid {
			d := date.Time.Format("2006-01-02")
			rv.Date = &d
		}
		if reply.Valid {
			s := reply.String
			rv.ReplyText = &s
		}
		if appVersion.Valid {
			s := appVersion.String
			rv.AppVersion = &s
		}
		if sentiment.Valid {
			s := sentiment.String
			rv.Sentiment = &s
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) SentimentCounts(ctx context.Context, code string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, sentimentCountsSQL, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		if label == "" {
			label = "Unlabeled"
		}
		out[label] = n
	}
	return out, rows.Err()
}

var _ domain.ReviewRepository = (*Repo)(nil)
