package users

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/GeoAtlas/Region-Backend/internal/apperror"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *Service
}

type successResponse struct {
	Status string   `json:"status"`
	Data   *UserOut `json:"data"`
}

func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: user})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apperror.Write(w, r, apperror.OperationFailed("user", "Invalid request format"))
		return
	}

	log.Printf("[users] updating user: %s", id)
	user, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Status: "success", Data: user})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	log.Printf("[users] deleting user: %s", id)
	if err := h.Service.Delete(r.Context(), id); err != nil {
		apperror.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
