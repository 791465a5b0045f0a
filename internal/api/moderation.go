package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/reclaimhq/reclaim/internal/chat"
	"github.com/reclaimhq/reclaim/internal/queue"
	"github.com/reclaimhq/reclaim/internal/store"
)

// ModerationHandler handles the admin moderation surface. All routes are
// mounted behind RequireAdmin.
type ModerationHandler struct {
	DB  *sql.DB
	Hub *chat.Hub
	Log *slog.Logger
}

// Flagged handles GET /api/moderation/flagged.
func (h *ModerationHandler) Flagged(w http.ResponseWriter, r *http.Request) {
	msgs, err := store.ListFlaggedMessages(r.Context(), h.DB)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list flagged messages")
		return
	}

	jsonResponse(w, http.StatusOK, msgs)
}

// Resolve handles POST /api/moderation/messages/{id}/resolve. The message
// keeps its text; the flag is cleared and the resolution recorded.
func (h *ModerationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	msg, err := store.GetMessage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get message")
		return
	}
	if msg == nil {
		jsonError(w, http.StatusNotFound, "message not found")
		return
	}

	if err := store.ResolveFlag(r.Context(), h.DB, id, claims.UserID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to resolve flag")
		return
	}

	resolved, _ := store.GetMessage(r.Context(), h.DB, id)
	if resolved != nil {
		h.Hub.NotifyResolved(resolved)
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "flag resolved"})
}

// Delete handles DELETE /api/moderation/messages/{id}.
func (h *ModerationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	msg, err := store.GetMessage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get message")
		return
	}
	if msg == nil {
		jsonError(w, http.StatusNotFound, "message not found")
		return
	}

	if err := store.DeleteMessage(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete message")
		return
	}

	h.Hub.NotifyDeleted(msg.ConversationID, msg.ID)

	jsonResponse(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

// Stream handles GET /api/moderation/ws, a live feed of flag activity.
func (h *ModerationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	chat.ServeModeration(h.Hub, h.DB, w, r)
}

// FlushQueue handles POST /api/moderation/queue/flush. Queued submissions
// normally flush at startup; this lets an admin force a pass.
func (h *ModerationHandler) FlushQueue(w http.ResponseWriter, r *http.Request) {
	flushed, err := queue.Flush(r.Context(), h.DB, h.Log)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "queue flush failed")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]int{"flushed": flushed})
}
