package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/riponahmed2201/taskmgr/internal/models"
)

// ErrTaskNotFound is returned when no task matches the given id.
var ErrTaskNotFound = errors.New("task not found")

const taskColumns = "id, owner_id, title, description, status, created_at, updated_at"

// ========================
// REPOSITORY STRUCT
// ========================

type TaskRepo struct {
	DB *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{DB: db}
}

func scanTask(row *sql.Row) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

// ========================
// CREATE TASK
// ========================

// Create inserts a task owned by ownerID. Status always starts as OPEN;
// the column default stamps it.
func (r *TaskRepo) Create(ctx context.Context, ownerID int, title, description string) (models.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO tasks (owner_id, title, description)
		 VALUES ($1, $2, $3)
		 RETURNING `+taskColumns,
		ownerID, title, description,
	)
	return scanTask(row)
}

// ========================
// GET TASK BY ID
// ========================

func (r *TaskRepo) Get(ctx context.Context, id int) (models.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return task, err
}

// ========================
// LIST TASKS (OWNER SCOPED)
// ========================

// List returns ownerID's tasks, optionally filtered by status and by a
// case-insensitive partial match on title/description, ordered by id.
func (r *TaskRepo) List(ctx context.Context, ownerID int, status models.TaskStatus, search string, limit, offset int) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ========================
// UPDATE TASK BY ID
// ========================

// Update rewrites title and description. Concurrent updates to the same
// task resolve last-write-wins.
func (r *TaskRepo) Update(ctx context.Context, id int, title, description string) (models.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+taskColumns,
		title, description, id,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return task, err
}

// ========================
// UPDATE TASK STATUS
// ========================

func (r *TaskRepo) UpdateStatus(ctx context.Context, id int, status models.TaskStatus) (models.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		`UPDATE tasks
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+taskColumns,
		status, id,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return task, err
}

// ========================
// DELETE TASK BY ID
// ========================

func (r *TaskRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTaskNotFound
	}
	return nil
}
