package api

import (
	"net/http"

	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(q proxy.Executor, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Exec: q, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{Exec: q}
	itemsHandler := &ItemsHandler{Exec: q}
	idsHandler := &IDsHandler{Exec: q}

	authMW := AuthMiddleware(jwtSecret, q)
	requireAdmin := RequireRole(model.RoleAdmin)
	can := func(action string, h http.HandlerFunc) http.Handler {
		return authMW(RequirePermission(action)(h))
	}

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/categories", ListCategories)

	// Any authenticated user.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/me", authMW(http.HandlerFunc(authHandler.Me)))

	// Items.
	mux.Handle("GET /api/items", can(model.ActionView, itemsHandler.List))
	mux.Handle("POST /api/items", can(model.ActionAdd, itemsHandler.Create))
	mux.Handle("GET /api/items/{name}", can(model.ActionView, itemsHandler.Get))
	mux.Handle("PUT /api/items/{name}", can(model.ActionEdit, itemsHandler.Update))
	mux.Handle("DELETE /api/items/{name}", can(model.ActionDelete, itemsHandler.Delete))
	mux.Handle("PUT /api/items/{name}/photo", can(model.ActionEdit, itemsHandler.UploadPhoto))
	mux.Handle("GET /api/items/{name}/photo", can(model.ActionView, itemsHandler.GetPhoto))

	// ID allocation.
	mux.Handle("GET /api/ids/next", can(model.ActionGenerateID, idsHandler.Next))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("PUT /api/users/{username}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.UpdateRole))))
	mux.Handle("DELETE /api/users/{username}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	return mux
}
