package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
	"github.com/erazemk/magazyn/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	Exec proxy.Executor
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.Exec)
	if err != nil {
		slog.Error("failed to list users", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// UpdateRole handles PUT /api/users/{username}/role. Unlike registration,
// any role may be assigned here, including moder.
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	var req updateRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	claims := GetClaims(r.Context())
	if claims.Username == username && req.Role != model.RoleAdmin {
		jsonError(w, http.StatusBadRequest, "cannot demote yourself")
		return
	}

	err := store.UpdateUserRole(r.Context(), h.Exec, username, req.Role)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.Error("failed to update user", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.Exec, username)
	if err != nil || user == nil {
		jsonError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	slog.Info("user role updated", "user", claims.Username, "target_user", username, "new_role", req.Role)
	jsonResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{username}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	// Prevent self-deletion.
	claims := GetClaims(r.Context())
	if claims.Username == username {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	err := store.DeleteUser(r.Context(), h.Exec, username)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete user", "error", err, "request_id", RequestID(r.Context()))
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
