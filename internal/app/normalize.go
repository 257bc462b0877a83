package app

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"bank_reviews/internal/domain"
)

// SourceName identifies the origin channel on every canonical record.
const SourceName = "Google Play"

/********** field alias registry (single source of truth) **********/

// Raw dumps arrive with two column conventions; the first matching alias
// wins and an already-populated canonical field is never overwritten.
var fieldAliases = map[string][]string{
	"review_text": {"content", "review"},
	"rating":      {"score", "rating"},
	"review_date": {"at", "date"},
	"review_id":   {"reviewId"},
	"user_name":   {"userName"},
	"thumbs_up":   {"thumbsUpCount"},
	"reply_text":  {"replyContent"},
	"app_version": {"reviewCreatedVersion"},
}

// Normalizer reconciles heterogeneous raw records into canonical reviews.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer { return &Normalizer{now: time.Now} }

// NormalizeOutcome carries the surviving records plus rejection counters.
type NormalizeOutcome struct {
	Reviews      []domain.Review
	Rejected     int
	DateFailures int
}

// Normalize converts one batch of raw records for an organization. Records
// with empty text or a missing/out-of-range rating are rejected and counted;
// an unparsable date only nulls the date, it never rejects the record.
func (n *Normalizer) Normalize(items []map[string]any, org domain.Organization) NormalizeOutcome {
	var out NormalizeOutcome
	ingestedAt := n.now().UTC()

	for _, raw := range items {
		text := collapseWhitespace(firstString(raw, fieldAliases["review_text"]))
		if text == "" {
			out.Rejected++
			continue
		}

		rating, ok := firstInt(raw, fieldAliases["rating"])
		if !ok || rating < 1 || rating > 5 {
			out.Rejected++
			continue
		}

		var date *string
		if v, present := firstValue(raw, fieldAliases["review_date"]); present {
			if d, ok := normalizeDate(v); ok {
				date = &d
			} else {
				out.DateFailures++
			}
		}

		rv := domain.Review{
			OrgCode:    org.Code,
			Text:       text,
			Rating:     rating,
			Date:       date,
			UserName:   "Anonymous",
			Source:     SourceName,
			IngestedAt: ingestedAt,
		}
		if s := strings.TrimSpace(firstString(raw, fieldAliases["user_name"])); s != "" {
			rv.UserName = s
		}
		if t, ok := firstInt(raw, fieldAliases["thumbs_up"]); ok && t >= 0 {
			rv.ThumbsUp = t
		}
		if s := firstString(raw, fieldAliases["reply_text"]); s != "" {
			rv.ReplyText = &s
		}
		if s := firstString(raw, fieldAliases["app_version"]); s != "" {
			rv.AppVersion = &s
		}

		if id := firstString(raw, fieldAliases["review_id"]); id != "" {
			rv.ID = id
		} else {
			rv.ID = deriveID(text, org.Code, date)
			rv.DerivedID = true
		}

		out.Reviews = append(out.Reviews, rv)
	}

	if out.DateFailures > 0 {
		// one line per batch, not per-row noise
		log.Warn().Str("org", org.Code).Int("count", out.DateFailures).Msg("unparsable review dates set to null")
	}
	return out
}

// deriveID synthesizes a stable identifier when the provider supplied none.
func deriveID(text, orgCode string, date *string) string {
	d := ""
	if date != nil {
		d = *date
	}
	sum := sha1.Sum([]byte(strings.Join([]string{text, orgCode, d}, "|")))
	return hex.EncodeToString(sum[:])
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

/********** flexible raw-value extraction **********/

func firstValue(m map[string]any, aliases []string) (any, bool) {
	for _, k := range aliases {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(m map[string]any, aliases []string) string {
	for _, k := range aliases {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstInt accepts float64 (JSON numbers), int, or numeric strings.
func firstInt(m map[string]any, aliases []string) (int, bool) {
	v, ok := firstValue(m, aliases)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		// locale dumps sometimes carry "4.0"
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

// dateLayouts use non-padded verbs so "2023-5-3T10:00:00Z" and "2023-05-03"
// both parse.
var dateLayouts = []string{
	"2006-1-2T15:4:5Z07:00",
	"2006-1-2 15:4:5",
	"2006-1-2",
}

// normalizeDate reduces any accepted representation (unix seconds, ISO
// timestamp, plain date) to a YYYY-MM-DD calendar date.
func normalizeDate(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("2006-01-02"), true
	case float64:
		if t <= 0 {
			return "", false
		}
		return time.Unix(int64(t), 0).UTC().Format("2006-01-02"), true
	case int64:
		if t <= 0 {
			return "", false
		}
		return time.Unix(t, 0).UTC().Format("2006-01-02"), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC().Format("2006-01-02"), true
			}
		}
	}
	return "", false
}
