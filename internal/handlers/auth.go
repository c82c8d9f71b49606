package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riponahmed2201/taskmgr/internal/auth"
	"github.com/riponahmed2201/taskmgr/internal/metrics"
	"github.com/riponahmed2201/taskmgr/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a valid bcrypt hash compared against when the username is
// unknown, so login failures cost the same whether or not the user exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var validate = validator.New()

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Secret   []byte
	TokenTTL time.Duration
}

// ==========================
// Register (sign-up)
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,min=3,max=50"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.UserRepo.Create(r.Context(), input.Username, string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateUsername) {
			JSONError(w, "username already taken", http.StatusConflict)
			return
		}
		slog.Error("register: create user failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// ==========================
// Login (sign-in)
// ==========================
// Unknown username and wrong password produce the same response; a dummy
// bcrypt comparison keeps the latency of both paths aligned.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByUsername(r.Context(), input.Username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(input.Password))
			metrics.IncAuthFailure("credentials")
			JSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		slog.Error("login: lookup failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		metrics.IncAuthFailure("credentials")
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	signed, err := auth.IssueToken(user.ID, h.Secret, h.TokenTTL)
	if err != nil {
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}
