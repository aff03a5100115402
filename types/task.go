package types

import "time"

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task is a household chore tracked within a group.
type Task struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Completed   bool         `json:"completed"`
	AssignedTo  string       `json:"assigned_to"`
	CreatedBy   string       `json:"created_by"`
	GroupID     string       `json:"group_id"`
	CreatedAt   time.Time    `json:"createdAt,omitempty"`
}

func (t Task) GetID() string { return t.ID }

// Overdue reports whether an incomplete task is past its due date.
func (t Task) Overdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && now.After(*t.DueDate)
}

type CreateTaskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	AssignedTo  string       `json:"assigned_to"`
	GroupID     string       `json:"group_id"`
}

type UpdateTaskRequest struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	AssignedTo  *string       `json:"assigned_to,omitempty"`
}
