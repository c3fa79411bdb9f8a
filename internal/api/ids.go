package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/magazyn/internal/idalloc"
	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
	"github.com/erazemk/magazyn/internal/store"
)

// IDsHandler hands out item ids.
type IDsHandler struct {
	Exec proxy.Executor
}

// Next handles GET /api/ids/next?category=&size=.
func (h *IDsHandler) Next(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := query.Get("category")
	if category == "" {
		jsonError(w, http.StatusBadRequest, "category required")
		return
	}

	id, err := store.NextAvailableID(r.Context(), h.Exec, category, query.Get("size"))
	if err != nil {
		var exhausted *idalloc.ExhaustedError
		switch {
		case errors.Is(err, idalloc.ErrUnknownCategory), errors.Is(err, idalloc.ErrInvalidSize):
			jsonError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &exhausted):
			jsonError(w, http.StatusConflict, err.Error())
		default:
			slog.Error("failed to generate id", "error", err, "request_id", RequestID(r.Context()))
			jsonError(w, http.StatusInternalServerError, "failed to generate id")
		}
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"id": id})
}

// ListCategories handles GET /api/categories.
func ListCategories(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, model.Categories)
}
