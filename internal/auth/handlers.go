package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GeoAtlas/Region-Backend/internal/apperror"
	"github.com/GeoAtlas/Region-Backend/internal/db"
	"github.com/GeoAtlas/Region-Backend/internal/users"
	"github.com/GeoAtlas/Region-Backend/internal/utils"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

type Handler struct {
	Users *users.Service
}

type authResponse struct {
	User  *users.UserOut `json:"user"`
	Token string         `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in users.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if in.Name == "" || in.Email == "" || in.Password == "" {
		http.Error(w, "Name, email and password are required", http.StatusBadRequest)
		return
	}
	if len(in.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	user, err := h.Users.Create(r.Context(), in)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	token, err := issueToken(user.ID)
	if err != nil {
		apperror.Write(w, r, apperror.Database("user", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(authResponse{User: user, Token: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	user, err := h.Users.VerifyCredentials(r.Context(), creds.Email, creds.Password)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if user == nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := issueToken(user.ID)
	if err != nil {
		apperror.Write(w, r, apperror.Database("user", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(authResponse{User: user, Token: token})
}

// Logout revokes the presented bearer token. Runs behind the auth middleware,
// so the token is known to exist.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	value := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))

	if err := db.DB.Delete(&Token{}, "token = ?", value).Error; err != nil {
		apperror.Write(w, r, apperror.Database("user", err))
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "Logout successful")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing user ID in context", http.StatusInternalServerError)
		return
	}

	user, err := h.Users.FindByID(r.Context(), userID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

func issueToken(userID string) (string, error) {
	token := Token{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(tokenTTL),
	}
	if err := db.DB.Create(&token).Error; err != nil {
		return "", err
	}
	return token.Token, nil
}
