package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/reclaimhq/reclaim/internal/ai"
	"github.com/reclaimhq/reclaim/internal/match"
	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/store"
)

// MatchHandler exposes AI match scoring and image analysis.
type MatchHandler struct {
	DB     *sql.DB
	Engine *match.Engine
	Gen    ai.Generator
	Log    *slog.Logger
}

type matchResponseBody struct {
	Matches []model.MatchResult `json:"matches"`
	Error   string              `json:"error,omitempty"`
}

// FindMatches handles POST /api/items/{id}/match. It scores the item
// against the pool of opposite-type open items, writes the per-item
// confidence back to storage, and returns the ranked matches.
func (h *MatchHandler) FindMatches(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	target, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if target == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	pool, err := store.ListItems(r.Context(), h.DB, "", "")
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	resp, err := h.Engine.FindMatches(r.Context(), target, pool)
	if err != nil {
		h.writeMatchError(w, err)
		return
	}

	match.Propagate(r.Context(), h.DB, resp, h.Log)

	jsonResponse(w, http.StatusOK, matchResponseBody{Matches: resp.Matches})
}

// writeMatchError maps reasoning-service failures onto HTTP responses.
// A malformed model reply is not the caller's fault and not worth a
// retry, so it degrades to an empty match list.
func (h *MatchHandler) writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		jsonError(w, http.StatusServiceUnavailable, "matching is not configured")
	case ai.IsPermissionDenied(err):
		jsonRetryableError(w, http.StatusBadGateway, "matching service rejected the request", false)
	case ai.IsMalformed(err):
		h.Log.Warn("discarding malformed match response", "error", err)
		jsonResponse(w, http.StatusOK, matchResponseBody{
			Matches: []model.MatchResult{},
			Error:   "matching service returned an unusable response",
		})
	case ai.IsRetryable(err):
		status := http.StatusGatewayTimeout
		var qe *ai.QuotaError
		if errors.As(err, &qe) {
			status = http.StatusBadGateway
		}
		jsonRetryableError(w, status, "matching service unavailable, try again later", true)
	default:
		h.Log.Error("match scoring failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "match scoring failed")
	}
}

// AnalyzeImage handles POST /api/analyze. It accepts a multipart photo
// and returns suggested listing fields.
func (h *MatchHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	mime := http.DetectContentType(data)

	analysis, err := ai.AnalyzeImage(r.Context(), h.Gen, data, mime)
	if err != nil {
		h.writeMatchError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, analysis)
}
