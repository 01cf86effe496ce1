package regions

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes(svc *Service) http.Handler {
	h := &Handler{Service: svc}
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.FindAll)

	// Point queries before /{id} so "point" is never taken for an id.
	r.Get("/point/contains", h.FindByPoint)
	r.Get("/point/near", h.FindNearPoint)
	r.Get("/user/{userId}", h.FindByUser)

	r.Get("/{id}", h.FindByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}
