// internal/adapters/gplay/batchexecute.go
//
// Wire format of the PlayStoreUi batchexecute RPC. The frontend speaks a
// doubly-encoded JSON envelope: the response starts with an anti-hijacking
// prefix, the outer array wraps a JSON string, and that string parses into
// positional arrays. Field positions below follow the public review payload.
package gplay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const reviewsRPCID = "UsvDTd"

var errEnvelope = errors.New("unexpected batchexecute envelope")

// reviewsPayload builds the f.req form value for one review page.
// Sort is fixed to 2 (newest first); the continuation token, when present,
// resumes the provider-side cursor.
func reviewsPayload(appID string, count int, token string) string {
	tok := "null"
	if token != "" {
		b, _ := json.Marshal(token)
		tok = string(b)
	}
	app, _ := json.Marshal(appID)
	inner := fmt.Sprintf(`[null,null,[2,2,[%d,null,%s],null,[]],[%s,7]]`, count, tok, app)
	innerStr, _ := json.Marshal(inner)
	return fmt.Sprintf(`[[["%s",%s,null,"generic"]]]`, reviewsRPCID, innerStr)
}

// decodeReviewsEnvelope unwraps a batchexecute response into raw review
// records plus the next continuation token ("" when exhausted).
func decodeReviewsEnvelope(body []byte) ([]map[string]any, string, error) {
	payload, err := unwrap(body)
	if err != nil {
		return nil, "", err
	}
	if payload == "" || payload == "null" {
		return nil, "", nil // no reviews at all
	}

	var outer []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &outer); err != nil {
		return nil, "", fmt.Errorf("%w: inner payload: %v", errEnvelope, err)
	}
	if len(outer) == 0 {
		return nil, "", nil
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(outer[0], &rawItems); err != nil {
		// null item list means an exhausted stream, not a protocol error
		if strings.TrimSpace(string(outer[0])) == "null" {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("%w: item list: %v", errEnvelope, err)
	}

	items := make([]map[string]any, 0, len(rawItems))
	for _, ri := range rawItems {
		var fields []any
		if err := json.Unmarshal(ri, &fields); err != nil {
			continue // skip malformed entries, the normalizer counts real rejects
		}
		items = append(items, reviewFields(fields))
	}

	next := ""
	if len(outer) > 1 {
		var cont []any
		if err := json.Unmarshal(outer[1], &cont); err == nil && len(cont) > 1 {
			if s, ok := cont[1].(string); ok {
				next = s
			}
		}
	}
	return items, next, nil
}

// reviewFields maps the positional review array onto the provider's
// documented raw field names, which the normalizer reconciles downstream.
func reviewFields(f []any) map[string]any {
	m := make(map[string]any, 8)
	if s := strAt(f, 0); s != "" {
		m["reviewId"] = s
	}
	if user, ok := idx(f, 1).([]any); ok {
		if s := strAt(user, 0); s != "" {
			m["userName"] = s
		}
	}
	if v := idx(f, 2); v != nil {
		m["score"] = v
	}
	if s := strAt(f, 4); s != "" {
		m["content"] = s
	}
	if at, ok := idx(f, 5).([]any); ok {
		if secs, ok := idx(at, 0).(float64); ok {
			m["at"] = time.Unix(int64(secs), 0).UTC().Format(time.RFC3339)
		}
	}
	if v, ok := idx(f, 6).(float64); ok {
		m["thumbsUpCount"] = v
	}
	if reply, ok := idx(f, 7).([]any); ok {
		if s := strAt(reply, 1); s != "" {
			m["replyContent"] = s
		}
	}
	if s := strAt(f, 10); s != "" {
		m["reviewCreatedVersion"] = s
	}
	return m
}

// unwrap strips the )]}' prefix and extracts the payload string of the
// first wrb.fr frame addressed to our rpcid.
func unwrap(body []byte) (string, error) {
	s := string(body)
	if i := strings.Index(s, "\n"); i >= 0 && strings.HasPrefix(s, ")]}'") {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)

	var frames []json.RawMessage
	if err := json.Unmarshal([]byte(s), &frames); err != nil {
		return "", fmt.Errorf("%w: outer: %v", errEnvelope, err)
	}
	for _, fr := range frames {
		var frame []any
		if err := json.Unmarshal(fr, &frame); err != nil {
			continue
		}
		if strAt(frame, 0) != "wrb.fr" || strAt(frame, 1) != reviewsRPCID {
			continue
		}
		if s, ok := idx(frame, 2).(string); ok {
			return s, nil
		}
		return "", nil // frame present but payload null
	}
	return "", fmt.Errorf("%w: no %s frame", errEnvelope, reviewsRPCID)
}

func idx(a []any, i int) any {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

func strAt(a []any, i int) string {
	if s, ok := idx(a, i).(string); ok {
		return s
	}
	return ""
}
