package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(svc *Service) http.Handler {
	h := &Handler{Service: svc}
	r := chi.NewRouter()

	r.Get("/{id}", h.FindByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}
