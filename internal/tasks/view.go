package tasks

import "github.com/adanyl0v/go-todo-client/internal/models"

type Filter string

const (
	FilterMine Filter = "my-tasks"
	FilterAll  Filter = "all"
)

// Filter narrows tasks for display. Regular users only ever see their own
// tasks; administrators choose between their own and everyone's.
//
// This is a display convenience. The API decides what a user may access.
func (f Filter) Apply(tasks []models.Task, user *models.User) []models.Task {
	if user == nil {
		return []models.Task{}
	}
	if user.IsAdmin() && f == FilterAll {
		return append([]models.Task{}, tasks...)
	}

	own := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.UserID == user.ID {
			own = append(own, task)
		}
	}
	return own
}

// ShowOwner reports whether the owner of each task is worth displaying.
func (f Filter) ShowOwner(user *models.User) bool {
	return user.IsAdmin() && f == FilterAll
}

type Stats struct {
	Total     int `json:"total" yaml:"total"`
	Completed int `json:"completed" yaml:"completed"`
	Pending   int `json:"pending" yaml:"pending"`
}

func Summarize(tasks []models.Task) Stats {
	stats := Stats{Total: len(tasks)}
	for _, task := range tasks {
		if task.IsCompleted {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats
}
