package domain

import "time"

// RawReviewPage is one provider batch plus the continuation token for the
// next call. Ephemeral: it never leaves the fetch path.
type RawReviewPage struct {
	Items     []map[string]any
	NextToken string
}

// Review is the canonical record every raw provider shape normalizes into.
type Review struct {
	ID         string
	OrgCode    string
	Text       string
	Rating     int
	Date       *string // calendar date YYYY-MM-DD; nil when unparsable
	UserName   string
	ThumbsUp   int
	ReplyText  *string
	AppVersion *string
	Source     string
	Sentiment  *string
	IngestedAt time.Time

	// DerivedID marks ids synthesized from content rather than supplied by
	// the provider; dedup keys on text instead of id for these.
	DerivedID bool
}

// UpsertResult reports a batch write. Duplicates are rows already present
// (primary-key conflict resolved as a no-op, first write wins).
type UpsertResult struct {
	Inserted   int
	Duplicates int
	Failed     int
}

// OrgCounts is the per-organization slice of a run summary.
type OrgCounts struct {
	Code      string
	Fetched   int
	Rejected  int
	Deduped   int
	Persisted int
	Failed    int
	FetchErr  string // empty when the fetch completed cleanly
}

// RunSummary aggregates one pipeline run across organizations.
type RunSummary struct {
	StartedAt time.Time
	Orgs      []OrgCounts
}

// Succeeded reports whether at least one organization persisted anything.
func (s RunSummary) Succeeded() bool {
	for _, o := range s.Orgs {
		if o.Persisted > 0 {
			return true
		}
	}
	return false
}
