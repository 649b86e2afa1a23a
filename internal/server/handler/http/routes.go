package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dsmolkin/refind/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// registry API. Registration, login and public search are reachable
// without a token; everything else requires a valid bearer token, and
// the admin subtree additionally requires the admin role.
//
// Routes:
//
//	POST   /api/auth/register              → authHandler.Register
//	POST   /api/auth/login                 → authHandler.Login
//	GET    /api/auth/me                    → authHandler.Me
//	POST   /api/items                      → itemHandler.Create
//	GET    /api/items/search               → itemHandler.Search (public)
//	GET    /api/items/{id}                 → itemHandler.Get (public)
//	GET    /api/items/{id}/matches         → itemHandler.Matches
//	GET    /api/admin/items                → itemHandler.ListAll (admin)
//	PATCH  /api/admin/items/{id}/status    → itemHandler.UpdateStatus (admin)
//	DELETE /api/admin/items/{id}           → itemHandler.Delete (admin)
func NewRouter(
	authHandler *AuthHandler,
	itemHandler *ItemHandler,
	secret []byte,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.With(chiMiddleware.AllowContentType("application/json")).
			Post("/auth/register", authHandler.Register)
		r.With(chiMiddleware.AllowContentType("application/json")).
			Post("/auth/login", authHandler.Login)
		r.Get("/items/search", itemHandler.Search)
		r.Get("/items/{id:[0-9]+}", itemHandler.Get)

		// Protected group: requires valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(secret))
			r.Get("/auth/me", authHandler.Me)
			r.Post("/items", itemHandler.Create)
			r.Get("/items/{id:[0-9]+}/matches", itemHandler.Matches)

			// Admin subtree
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/items", itemHandler.ListAll)
				r.Patch("/items/{id:[0-9]+}/status", itemHandler.UpdateStatus)
				r.Delete("/items/{id:[0-9]+}", itemHandler.Delete)
			})
		})
	})

	return r
}
