package models

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description *string    `json:"description,omitempty" yaml:"description,omitempty"`
	IsCompleted bool       `json:"isCompleted" yaml:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt" yaml:"completedAt"`
	UserID      string     `json:"userId" yaml:"userId"`
	User        *TaskOwner `json:"user,omitempty" yaml:"user,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// TaskOwner is the owner summary embedded into tasks listed for administrators.
type TaskOwner struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Status is derived from IsCompleted only; CompletedAt is never consulted.
func (t *Task) Status() string {
	if t.IsCompleted {
		return StatusCompleted
	}
	return StatusPending
}

// CompletionTime reports when the task was completed. It returns false
// unless the task is completed and carries a completion timestamp.
func (t *Task) CompletionTime() (time.Time, bool) {
	if !t.IsCompleted || t.CompletedAt == nil {
		return time.Time{}, false
	}
	return *t.CompletedAt, true
}

func (t *Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"min=3"`
	Description *string `json:"description,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=3"`
	Description *string `json:"description,omitempty"`
	IsCompleted *bool   `json:"isCompleted,omitempty"`
}

func (r UpdateTaskRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.IsCompleted == nil
}
