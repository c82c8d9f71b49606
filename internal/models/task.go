package models

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusOpen       TaskStatus = "OPEN"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// ValidStatus reports whether s is one of the known task statuses.
// Any status may transition to any other; there is no terminal state.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	OwnerID     int        `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
