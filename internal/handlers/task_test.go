package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/riponahmed2201/taskmgr/internal/middleware"
	"github.com/riponahmed2201/taskmgr/internal/models"
	"github.com/riponahmed2201/taskmgr/internal/repo"
)

var taskRows = []string{"id", "owner_id", "title", "description", "status", "created_at", "updated_at"}

func newTaskHandler(db *sql.DB) *TaskHandler {
	return &TaskHandler{Repo: repo.NewTaskRepo(db)}
}

// taskRequest builds a request authenticated as userID, with an optional {id} URL param.
func taskRequest(method, target, id string, userID int, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := middleware.WithUserID(req.Context(), userID)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestTaskHandler_Create_StampsCallerAsOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	// Owner comes from the token identity (1), never from the body.
	mock.ExpectQuery(`INSERT INTO tasks \(owner_id, title, description\)`).
		WithArgs(1, "write report", "draft it").
		WillReturnRows(sqlmock.NewRows(taskRows).
			AddRow(10, 1, "write report", "draft it", "OPEN", now, now))

	h := newTaskHandler(db)

	// Body tries to spoof ownership with owner_id: 999; the field is ignored.
	body := []byte(`{"title":"write report","description":"draft it","owner_id":999}`)
	req := taskRequest("POST", "/tasks", "", 1, body)
	rr := httptest.NewRecorder()
	h.CreateTask(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateTask status: got %d, want 201", rr.Code)
	}
	var task models.Task
	if err := json.NewDecoder(rr.Body).Decode(&task); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if task.OwnerID != 1 {
		t.Errorf("owner: got %d, want 1 (authenticated caller)", task.OwnerID)
	}
	if task.Status != models.StatusOpen {
		t.Errorf("status: got %s, want OPEN", task.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Create_EmptyTitle(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newTaskHandler(db)

	req := taskRequest("POST", "/tasks", "", 1, []byte(`{"title":"","description":"d"}`))
	rr := httptest.NewRecorder()
	h.CreateTask(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("CreateTask status: got %d, want 400", rr.Code)
	}
}

func TestTaskHandler_Get_ForbiddenForNonOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	// Task 10 is owned by user 1; the request is authenticated as user 2.
	mock.ExpectQuery(`SELECT id, owner_id, title, description, status, created_at, updated_at FROM tasks WHERE id = \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(taskRows).
			AddRow(10, 1, "alice's task", "", "OPEN", now, now))

	h := newTaskHandler(db)

	req := taskRequest("GET", "/tasks/10", "10", 2, nil)
	rr := httptest.NewRecorder()
	h.GetTask(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("GetTask status: got %d, want 403", rr.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "forbidden" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM tasks WHERE id = \$1`).
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows(taskRows))

	h := newTaskHandler(db)

	req := taskRequest("GET", "/tasks/999", "999", 1, nil)
	rr := httptest.NewRecorder()
	h.GetTask(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("GetTask status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_UpdateStatus_RejectsUnknownValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM tasks WHERE id = \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(taskRows).
			AddRow(10, 1, "t", "", "OPEN", now, now))

	h := newTaskHandler(db)

	req := taskRequest("PATCH", "/tasks/10/status", "10", 1, []byte(`{"status":"ARCHIVED"}`))
	rr := httptest.NewRecorder()
	h.UpdateTaskStatus(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("UpdateTaskStatus status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_UpdateStatus_IdempotentDone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	h := newTaskHandler(db)

	// Setting DONE twice in a row succeeds both times and stays DONE.
	for i, current := range []string{"OPEN", "DONE"} {
		mock.ExpectQuery(`FROM tasks WHERE id = \$1`).
			WithArgs(10).
			WillReturnRows(sqlmock.NewRows(taskRows).
				AddRow(10, 1, "t", "", current, now, now))
		mock.ExpectQuery(`UPDATE tasks\s+SET status = \$1, updated_at = NOW\(\)`).
			WithArgs(models.StatusDone, 10).
			WillReturnRows(sqlmock.NewRows(taskRows).
				AddRow(10, 1, "t", "", "DONE", now, now))

		req := taskRequest("PATCH", "/tasks/10/status", "10", 1, []byte(`{"status":"DONE"}`))
		rr := httptest.NewRecorder()
		h.UpdateTaskStatus(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("call %d: status got %d, want 200", i+1, rr.Code)
		}
		var task models.Task
		if err := json.NewDecoder(rr.Body).Decode(&task); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if task.Status != models.StatusDone {
			t.Errorf("call %d: status got %s, want DONE", i+1, task.Status)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Delete_OwnerOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM tasks WHERE id = \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(taskRows).
			AddRow(10, 1, "t", "", "OPEN", now, now))
	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1`).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTaskHandler(db)

	req := taskRequest("DELETE", "/tasks/10", "10", 1, nil)
	rr := httptest.NewRecorder()
	h.DeleteTask(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("DeleteTask status: got %d, want 204", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Delete_ForbiddenLeavesTaskAlone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	// Only the ownership lookup runs; no DELETE is issued.
	mock.ExpectQuery(`FROM tasks WHERE id = \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(taskRows).
			AddRow(10, 1, "t", "", "OPEN", now, now))

	h := newTaskHandler(db)

	req := taskRequest("DELETE", "/tasks/10", "10", 2, nil)
	rr := httptest.NewRecorder()
	h.DeleteTask(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("DeleteTask status: got %d, want 403", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_List_InvalidStatusFilter(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newTaskHandler(db)

	req := taskRequest("GET", "/tasks?status=BOGUS", "", 1, nil)
	rr := httptest.NewRecorder()
	h.ListTasks(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("ListTasks status: got %d, want 400", rr.Code)
	}
}

func TestTaskHandler_List_NoAuth(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newTaskHandler(db)

	req := httptest.NewRequest("GET", "/tasks", nil)
	rr := httptest.NewRecorder()
	h.ListTasks(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("ListTasks status: got %d, want 401", rr.Code)
	}
}
