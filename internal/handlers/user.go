package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/riponahmed2201/taskmgr/internal/middleware"
	"github.com/riponahmed2201/taskmgr/internal/repo"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Repo *repo.UserRepo
}

// Me returns the authenticated caller's own user record.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.Repo.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
