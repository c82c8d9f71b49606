package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/riponahmed2201/taskmgr/internal/metrics"
	"github.com/riponahmed2201/taskmgr/internal/middleware"
	"github.com/riponahmed2201/taskmgr/internal/models"
	"github.com/riponahmed2201/taskmgr/internal/repo"
)

// TaskHandler gates every task operation behind the owner check: a task is
// visible and mutable only to the user that created it. "Forbidden" (task
// exists, caller is not the owner) is deliberately distinct from "not found".
type TaskHandler struct {
	Repo      *repo.TaskRepo
	AuditRepo *repo.AuditRepo
}

//
// ==========================
// Create Task
// ==========================
//

// CreateTask stamps the authenticated caller as owner. The input struct has
// no owner field, so an owner_id supplied in the body can never take effect.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Title       string `json:"title" validate:"required,min=1,max=255"`
		Description string `json:"description" validate:"max=2000"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	task, err := h.Repo.Create(r.Context(), userID, input.Title, input.Description)
	if err != nil {
		slog.Error("create task failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.IncTasksCreated()
	h.audit(r, userID, "create", task.ID, "")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

//
// ==========================
// List Tasks
// ==========================
//

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Default pagination
	limit := 10
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	var status models.TaskStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status = models.TaskStatus(strings.ToUpper(s))
		if !models.ValidStatus(status) {
			JSONError(w, "invalid status filter", http.StatusBadRequest)
			return
		}
	}

	search := r.URL.Query().Get("search")

	tasks, err := h.Repo.List(r.Context(), userID, status, search, limit, offset)
	if err != nil {
		slog.Error("list tasks failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

//
// ==========================
// Get Task By ID
// ==========================
//

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

//
// ==========================
// Update Task (title/description)
// ==========================
//

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var input struct {
		Title       string `json:"title" validate:"required,min=1,max=255"`
		Description string `json:"description" validate:"max=2000"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	updated, err := h.Repo.Update(r.Context(), task.ID, input.Title, input.Description)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		slog.Error("update task failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, task.OwnerID, "update", task.ID, "")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

//
// ==========================
// Update Task Status
// ==========================
//

// UpdateTaskStatus moves the task to any of OPEN, IN_PROGRESS, DONE. Every
// transition is allowed, including re-applying the current status, so the
// operation is idempotent under repetition.
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" validate:"required,oneof=OPEN IN_PROGRESS DONE"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	updated, err := h.Repo.UpdateStatus(r.Context(), task.ID, models.TaskStatus(input.Status))
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		slog.Error("update task status failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, task.OwnerID, "status", task.ID, string(updated.Status))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

//
// ==========================
// Delete Task
// ==========================
//

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Delete(r.Context(), task.ID); err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			JSONError(w, "task not found", http.StatusNotFound)
			return
		}
		slog.Error("delete task failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	h.audit(r, task.OwnerID, "delete", task.ID, "")

	w.WriteHeader(http.StatusNoContent)
}

//
// ==========================
// Helpers
// ==========================
//

// ownedTask parses {id}, loads the task, and enforces the ownership check.
// On failure it writes the error response and returns ok=false.
func (h *TaskHandler) ownedTask(w http.ResponseWriter, r *http.Request) (models.Task, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return models.Task{}, false
	}

	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return models.Task{}, false
	}

	task, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrTaskNotFound) {
			JSONError(w, "task not found", http.StatusNotFound)
			return models.Task{}, false
		}
		slog.Error("get task failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return models.Task{}, false
	}

	if task.OwnerID != userID {
		JSONError(w, "forbidden", http.StatusForbidden)
		return models.Task{}, false
	}

	return task, true
}

func (h *TaskHandler) audit(r *http.Request, userID int, action string, taskID int, details string) {
	if h.AuditRepo == nil {
		return
	}
	if err := h.AuditRepo.Log(r.Context(), userID, action, "task", taskID, details); err != nil {
		slog.Error("audit log failed", "action", action, "task_id", taskID, "error", err)
	}
}
