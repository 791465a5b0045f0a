package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/reclaimhq/reclaim/internal/chat"
	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/store"
)

// ConversationsHandler handles conversation and message endpoints.
type ConversationsHandler struct {
	DB  *sql.DB
	Hub *chat.Hub
}

type startConversationRequest struct {
	ItemID string `json:"item_id"`
	UserID int64  `json:"user_id"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type flagMessageRequest struct {
	Reason string `json:"reason"`
}

// Start handles POST /api/conversations. Starting a conversation about
// the same item with the same counterpart returns the existing one.
func (h *ConversationsHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req startConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ItemID == "" || req.UserID == 0 {
		jsonError(w, http.StatusBadRequest, "item_id and user_id required")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, req.ItemID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	conv, err := store.GetOrCreateConversation(r.Context(), h.DB, req.ItemID, claims.UserID, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrSelfConversation) {
			jsonError(w, http.StatusBadRequest, "cannot start a conversation with yourself")
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to start conversation")
		return
	}

	jsonResponse(w, http.StatusOK, conv)
}

// List handles GET /api/conversations.
func (h *ConversationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	convs, err := store.ListConversations(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	jsonResponse(w, http.StatusOK, convs)
}

// Messages handles GET /api/conversations/{id}/messages.
func (h *ConversationsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	conv, ok := h.requireParticipant(w, r, claims.UserID, claims.Admin)
	if !ok {
		return
	}

	msgs, err := store.ListMessages(r.Context(), h.DB, conv.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	jsonResponse(w, http.StatusOK, msgs)
}

// Send handles POST /api/conversations/{id}/messages.
func (h *ConversationsHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	conv, ok := h.requireParticipant(w, r, claims.UserID, false)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		jsonError(w, http.StatusBadRequest, "message text required")
		return
	}

	msg, err := store.CreateMessage(r.Context(), h.DB, conv.ID, claims.UserID, claims.Username, req.Text)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	h.Hub.NotifyMessage(msg)

	jsonResponse(w, http.StatusCreated, msg)
}

// Flag handles POST /api/messages/{id}/flag. Participants can flag each
// other's messages but not their own.
func (h *ConversationsHandler) Flag(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	msg, err := store.GetMessage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get message")
		return
	}
	if msg == nil {
		jsonError(w, http.StatusNotFound, "message not found")
		return
	}

	conv, err := store.GetConversation(r.Context(), h.DB, msg.ConversationID)
	if err != nil || conv == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}
	if !conv.HasParticipant(claims.UserID) && !claims.Admin {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	if msg.SenderID == claims.UserID {
		jsonError(w, http.StatusBadRequest, "cannot flag your own message")
		return
	}

	var req flagMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.FlagMessage(r.Context(), h.DB, msg.ID, req.Reason); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to flag message")
		return
	}

	flagged, _ := store.GetMessage(r.Context(), h.DB, msg.ID)
	if flagged != nil {
		h.Hub.NotifyFlagged(flagged)
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "message flagged"})
}

// Stream handles GET /api/conversations/{id}/ws. Auth uses the token
// query parameter since browsers can't set headers on websocket dials.
func (h *ConversationsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	conv, ok := h.requireParticipant(w, r, claims.UserID, claims.Admin)
	if !ok {
		return
	}

	chat.ServeConversation(h.Hub, h.DB, w, r, conv.ID)
}

// requireParticipant loads the conversation from the path and checks the
// caller belongs to it. allowAdmin lets admins through regardless.
func (h *ConversationsHandler) requireParticipant(w http.ResponseWriter, r *http.Request, userID int64, allowAdmin bool) (*model.Conversation, bool) {
	conv, err := store.GetConversation(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get conversation")
		return nil, false
	}
	if conv == nil {
		jsonError(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}
	if !conv.HasParticipant(userID) && !allowAdmin {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return nil, false
	}
	return conv, true
}
