package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/riponahmed2201/taskmgr/internal/middleware"
	"github.com/riponahmed2201/taskmgr/internal/models"
	"github.com/riponahmed2201/taskmgr/internal/repo"
)

// AuditHandler serves the caller's own audit trail.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

// ListAudit returns the caller's recent audit entries. Query: limit (default 50, max 200), offset (default 0).
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	entries, err := h.Repo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
