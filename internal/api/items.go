package api

import (
	"database/sql"
	"net/http"

	"github.com/reclaimhq/reclaim/internal/auth"
	"github.com/reclaimhq/reclaim/internal/imaging"
	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/queue"
	"github.com/reclaimhq/reclaim/internal/store"
	"github.com/reclaimhq/reclaim/internal/visibility"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	ContactName string `json:"contact_name"`
	Deferred    bool   `json:"deferred"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/items. The result is filtered through the
// visibility policy for whoever is asking (possibly nobody).
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	itemType := r.URL.Query().Get("type")
	category := r.URL.Query().Get("category")

	items, err := store.ListItems(r.Context(), h.DB, itemType, category)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	viewer := viewerFrom(GetClaims(r.Context()))
	jsonResponse(w, http.StatusOK, visibility.Filter(viewer, items))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type != model.TypeLost && req.Type != model.TypeFound {
		jsonError(w, http.StatusBadRequest, "type must be LOST or FOUND")
		return
	}
	if req.Title == "" || req.Date == "" {
		jsonError(w, http.StatusBadRequest, "title and date required")
		return
	}

	item := &model.Item{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Date:        req.Date,
		ContactName: req.ContactName,
		OwnerID:     &claims.UserID,
	}

	if req.Deferred {
		id, err := queue.Enqueue(r.Context(), h.DB, item, nil, "")
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to queue item")
			return
		}
		jsonResponse(w, http.StatusAccepted, map[string]string{"queued_id": id})
		return
	}

	created, err := store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		// The submission survives the store failure: it goes to the local
		// queue and the next flush retries it.
		if id, qerr := queue.Enqueue(r.Context(), h.DB, item, nil, ""); qerr == nil {
			jsonResponse(w, http.StatusAccepted, map[string]string{"queued_id": id})
			return
		}
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	viewer := viewerFrom(GetClaims(r.Context()))
	if item == nil || !visibility.Visible(viewer, item) {
		// Hidden and missing look the same from outside.
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// UpdateStatus handles PUT /api/items/{id}/status.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	item, ok := h.requireOwnerOrAdmin(w, r, claims)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != model.StatusOpen && req.Status != model.StatusResolved {
		jsonError(w, http.StatusBadRequest, "status must be OPEN or RESOLVED")
		return
	}

	if err := store.UpdateItemStatus(r.Context(), h.DB, item.ID, req.Status); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	updated, _ := store.GetItem(r.Context(), h.DB, item.ID)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	item, ok := h.requireOwnerOrAdmin(w, r, claims)
	if !ok {
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	item, ok := h.requireOwnerOrAdmin(w, r, claims)
	if !ok {
		return
	}

	// Limit to 5 MB.
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

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, item.ID, processed.Data, processed.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	viewer := viewerFrom(GetClaims(r.Context()))
	if item == nil || !visibility.Visible(viewer, item) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// requireOwnerOrAdmin loads the item and checks the caller may mutate it.
// On failure it writes the error response and returns ok=false.
func (h *ItemsHandler) requireOwnerOrAdmin(w http.ResponseWriter, r *http.Request, claims *auth.Claims) (*model.Item, bool) {
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}

	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}

	if !claims.Admin && (item.OwnerID == nil || *item.OwnerID != claims.UserID) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return nil, false
	}

	return item, true
}
