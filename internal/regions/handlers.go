package regions

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/GeoAtlas/Region-Backend/internal/apperror"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *Service
}

type regionResponse struct {
	Status string     `json:"status"`
	Region *RegionOut `json:"region"`
}

type regionsResponse struct {
	Status  string      `json:"status"`
	Regions []RegionOut `json:"regions"`
}

type createRequest struct {
	Name    string   `json:"name"`
	Polygon *Polygon `json:"polygon"`
	User    string   `json:"user"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperror.Write(w, r, apperror.OperationFailed("region", "Invalid request format"))
		return
	}

	log.Printf("[regions] creating region %q for user %s", req.Name, req.User)
	region, err := h.Service.Create(r.Context(), req.Name, req.Polygon, req.User)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, regionResponse{Status: "success", Region: region})
}

func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	regions, err := h.Service.FindAll(r.Context())
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, regions)
}

func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	region, err := h.Service.FindByID(r.Context(), id)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, region)
}

func (h *Handler) FindByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	regions, err := h.Service.FindByUser(r.Context(), userID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, regions)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apperror.Write(w, r, apperror.OperationFailed("region", "Invalid request format"))
		return
	}

	log.Printf("[regions] updating region: %s", id)
	region, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, regionResponse{Status: "success", Region: region})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	log.Printf("[regions] deleting region: %s", id)
	if err := h.Service.Delete(r.Context(), id); err != nil {
		apperror.Write(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FindByPoint(w http.ResponseWriter, r *http.Request) {
	point, ok := parsePoint(w, r)
	if !ok {
		return
	}

	regions, err := h.Service.FindByPoint(r.Context(), point)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, regionsResponse{Status: "success", Regions: regions})
}

func (h *Handler) FindNearPoint(w http.ResponseWriter, r *http.Request) {
	point, ok := parsePoint(w, r)
	if !ok {
		return
	}

	distance, err := strconv.ParseFloat(r.URL.Query().Get("distance"), 64)
	if err != nil {
		apperror.Write(w, r, apperror.OperationFailed("region", ErrInvalidDistance.Error()))
		return
	}

	ownerID := r.URL.Query().Get("userId")

	regions, err := h.Service.FindNearPoint(r.Context(), point, distance, ownerID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, regionsResponse{Status: "success", Regions: regions})
}

func parsePoint(w http.ResponseWriter, r *http.Request) (Point, bool) {
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	if errLng != nil || errLat != nil {
		apperror.Write(w, r, apperror.OperationFailed("region", ErrInvalidCoordinates.Error()))
		return Point{}, false
	}
	return Point{Lng: lng, Lat: lat}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
