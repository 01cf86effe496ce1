package auth

import (
	"net/http"

	"github.com/GeoAtlas/Region-Backend/internal/middleware"
	"github.com/GeoAtlas/Region-Backend/internal/users"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(userSvc *users.Service) http.Handler {
	h := &Handler{Users: userSvc}
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(TokenInfo{}))
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}
