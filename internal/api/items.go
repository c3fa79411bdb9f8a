package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/magazyn/internal/device"
	"github.com/erazemk/magazyn/internal/idalloc"
	"github.com/erazemk/magazyn/internal/imaging"
	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
	"github.com/erazemk/magazyn/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Exec proxy.Executor
}

// photoURL is the route an item's stored photo is served from.
func photoURL(name string) string {
	return "/api/items/" + url.PathEscape(name) + "/photo"
}

// validateItem checks the fields required on save and returns a message
// describing the first problem.
func validateItem(item *model.Item) string {
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Quantity) == "" {
		return "name and quantity required"
	}
	if item.Category == "" {
		item.Category = model.DefaultCategory
	}
	if _, ok := model.LookupCategory(item.Category); !ok {
		return "unknown category"
	}
	if !idalloc.Valid(item.Category, item.Name) {
		return "item name does not match the category id pattern"
	}
	if item.Count < 0 {
		return "count must not be negative"
	}
	return ""
}

// stamp records who saved the item and from which device.
func stamp(r *http.Request, item *model.Item) {
	if claims := GetClaims(r.Context()); claims != nil {
		item.UpdatedBy = claims.Username
	}
	if item.DeviceID == "" {
		item.DeviceID = device.Fingerprint(device.FromRequest(r))
	}
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var inStock *bool
	if s := query.Get("stan"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid stan filter")
			return
		}
		inStock = &v
	}

	items, err := store.ListItems(r.Context(), h.Exec, query.Get("category"))
	if err != nil {
		slog.Error("failed to list items", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	jsonResponse(w, http.StatusOK, model.FilterItems(items, query.Get("q"), inStock))
}

// Get handles GET /api/items/{name}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.Exec, r.PathValue("name"))
	if err != nil {
		slog.Error("failed to get item", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item model.Item
	if err := decodeJSON(w, r, &item); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateItem(&item); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}
	stamp(r, &item)

	stored, err := store.AddItem(r.Context(), h.Exec, &item)
	if errors.Is(err, store.ErrItemExists) {
		jsonError(w, http.StatusConflict, "item already exists")
		return
	}
	if err != nil {
		slog.Error("failed to add item", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	slog.Info("item added", "user", item.UpdatedBy, "item", stored.Name, "device", item.DeviceID)
	jsonResponse(w, http.StatusCreated, stored)
}

// Update handles PUT /api/items/{name}. The name in the path wins over any
// name in the body.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var item model.Item
	if err := decodeJSON(w, r, &item); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item.Name = name

	if msg := validateItem(&item); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := store.GetItem(r.Context(), h.Exec, name)
	if err != nil {
		slog.Error("failed to get item", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.PhotoURL == "" {
		item.PhotoURL = existing.PhotoURL
	}
	stamp(r, &item)

	stored, err := store.UpdateItem(r.Context(), h.Exec, name, &item)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to update item", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	slog.Info("item updated", "user", item.UpdatedBy, "item", name, "device", item.DeviceID)
	jsonResponse(w, http.StatusOK, stored)
}

// Delete handles DELETE /api/items/{name}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	deleted, err := store.DeleteItem(r.Context(), h.Exec, name)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete item", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item deleted", "user", claims.Username, "item", name)
	jsonResponse(w, http.StatusOK, deleted)
}

// UploadPhoto handles PUT /api/items/{name}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxInputBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxInputBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = store.SetItemPhoto(r.Context(), h.Exec, name, photo.Data, photo.MIME, photoURL(name))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to save photo", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item photo uploaded", "user", claims.Username, "item", name, "width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"photo_url": photoURL(name)})
}

// GetPhoto handles GET /api/items/{name}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemPhoto(r.Context(), h.Exec, r.PathValue("name"))
	if err != nil {
		slog.Error("failed to get photo", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
