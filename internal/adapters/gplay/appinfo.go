// internal/adapters/gplay/appinfo.go
package gplay

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"bank_reviews/internal/domain"
)

var ldJSONRe = regexp.MustCompile(`(?s)<script[^>]*type="application/ld\+json"[^>]*>(.*?)</script>`)

// decodeAppPage pulls title and aggregate rating out of the store page's
// JSON-LD block. The page embeds much more, but everything the pipeline
// records about an app lives in this one structured island.
func decodeAppPage(body []byte) (domain.AppInfo, error) {
	m := ldJSONRe.FindSubmatch(body)
	if m == nil {
		return domain.AppInfo{}, errors.New("no ld+json block in app page")
	}

	var ld struct {
		Name            string `json:"name"`
		AggregateRating struct {
			// the page serves these as quoted strings
			RatingValue json.RawMessage `json:"ratingValue"`
			RatingCount json.RawMessage `json:"ratingCount"`
		} `json:"aggregateRating"`
	}
	if err := json.Unmarshal(m[1], &ld); err != nil {
		return domain.AppInfo{}, err
	}

	info := domain.AppInfo{Title: ld.Name}
	if f, err := strconv.ParseFloat(rawNumber(ld.AggregateRating.RatingValue), 64); err == nil {
		info.Score = f
	}
	if n, err := strconv.ParseInt(rawNumber(ld.AggregateRating.RatingCount), 10, 64); err == nil {
		info.Ratings = n
	}
	return info, nil
}

// rawNumber normalizes a JSON value that may be a number or a quoted string.
func rawNumber(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	return strings.Trim(s, `"`)
}
