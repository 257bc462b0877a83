// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bank_reviews/internal/app"
	"bank_reviews/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/organizations", h.listOrganizations)
	s.mux.Get("/v1/organizations/{code}/reviews", h.listReviews)
	s.mux.Get("/v1/organizations/{code}/sentiment", h.sentimentCounts)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Q.ListOrganizations(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not list organizations")
		return
	}
	writeJSON(w, r, orgs)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 1000 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 1000")
			return
		}
		limit = l
	}

	out, err := h.Q.ListReviews(r.Context(), code, domain.PageQuery{Limit: limit})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not list reviews")
		return
	}
	writeJSON(w, r, out)
}

func (h *Handlers) sentimentCounts(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	counts, err := h.Q.SentimentCounts(r.Context(), code)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Query failed", "could not aggregate sentiment")
		return
	}
	writeJSON(w, r, counts)
}
